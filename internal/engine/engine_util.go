package engine

import "fmt"

func ContainsEvent(events []TableEvent, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

// Replay sets up a game and applies choices in order. The same config, seed
// and choices always produce the same table and event log.
func Replay(cfg GameConfig, src Shuffler, choices []Choice) (*TableState, []TableEvent, error) {
	s := Setup(cfg, src)
	var log []TableEvent
	for i, c := range choices {
		events, err := s.Apply(c)
		log = append(log, events...)
		if err != nil {
			return s, log, fmt.Errorf("replay choice %d (%s): %w", i, c, err)
		}
	}
	return s, log, nil
}
