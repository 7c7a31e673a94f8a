package businessflow

import "sync"

var (
	commercialTriggerMutex sync.Mutex
)

func tryLockCommercialTrigger() bool {
	return commercialTriggerMutex.TryLock()
}

func unlockCommercialTrigger() {
	commercialTriggerMutex.Unlock()
}
