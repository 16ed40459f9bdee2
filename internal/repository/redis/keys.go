package redis

import "fmt"

const ns = "sorteo:v1"

func KeySettings() string {
	return ns + ":settings"
}

func KeyAccessCode(phone string) string {
	return fmt.Sprintf("%s:access:%s", ns, phone)
}

func KeyIdemReserve(idemKey string) string {
	return fmt.Sprintf("%s:idem:reserve:%s", ns, idemKey)
}

func KeyRateLimit(scope, id string) string {
	return fmt.Sprintf("%s:rl:%s:%s", ns, scope, id)
}

func ChannelTicketsChanged() string {
	return ns + ":tickets:changed"
}
