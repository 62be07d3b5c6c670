package eventbus

import (
	"fmt"
	"strings"

	"github.com/annel0/voxel-sim/internal/config"
)

// Open создаёт шину событий по конфигурации.
// Backend: none | memory | jetstream. Для none возвращает nil без ошибки.
func Open(cfg config.EventsConfig) (EventBus, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "none":
		return nil, nil
	case "memory":
		return NewMemoryBus(cfg.Buffer), nil
	case "jetstream", "nats":
		bus, err := NewJetStreamBus(cfg.NATSURL, cfg.Stream, cfg.Retention)
		if err != nil {
			return nil, err
		}
		return bus, nil
	default:
		return nil, fmt.Errorf("неизвестный backend шины событий: %q", cfg.Backend)
	}
}
