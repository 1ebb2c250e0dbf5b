package infra

import "fmt"

const (
	// RedisNamespace Базовый префикс для изоляции данных проекта в Redis
	RedisNamespace = "polis"
)

// Каналы Pub/Sub (события)
const (
	// RedisChanPolicyStatus — широковещательный канал смены статусов полисов.
	// Подписанные UI-инстансы обновляют очереди согласования без поллинга.
	RedisChanPolicyStatus = RedisNamespace + ":policies:status"
)

// Ключи кэша
const (
	// RedisKeyPendingCounts — кэш счетчиков очередей для дашборда
	RedisKeyPendingCounts = RedisNamespace + ":dashboard:pending_counts"
)

// PolicyEventKey — ключ события по конкретному полису (если понадобится
// адресная подписка, а не широковещательная)
func PolicyEventKey(policyID string) string {
	return fmt.Sprintf("%s:policies:%s:events", RedisNamespace, policyID)
}
