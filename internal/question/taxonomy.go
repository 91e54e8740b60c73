package question

import (
	"math/rand/v2"
)

// TopicSelector picks the sub-topics a batch should target.
type TopicSelector struct {
	all     []TopicAssignment
	shuffle func(n int, swap func(i, j int))
}

// NewTopicSelector builds a selector over the CISSP taxonomy.
func NewTopicSelector() *TopicSelector {
	return newTopicSelector(cisspTaxonomy, rand.Shuffle)
}

func newTopicSelector(table []domainTopics, shuffle func(n int, swap func(i, j int))) *TopicSelector {
	var all []TopicAssignment
	for _, entry := range table {
		for _, topic := range entry.topics {
			all = append(all, TopicAssignment{Domain: entry.domain, Topic: topic})
		}
	}
	return &TopicSelector{all: all, shuffle: shuffle}
}

// Topics returns every (domain, topic) pair in table order.
func (s *TopicSelector) Topics() []TopicAssignment {
	out := make([]TopicAssignment, len(s.all))
	copy(out, s.all)
	return out
}

// DomainOf returns the domain a topic belongs to.
func (s *TopicSelector) DomainOf(topic string) (Domain, bool) {
	for _, a := range s.all {
		if a.Topic == topic {
			return a.Domain, true
		}
	}
	return "", false
}

// SelectUncoveredTopics returns exactly count assignments, preferring topics
// not in covered. When too few uncovered topics remain, the whole taxonomy is
// used again.
func (s *TopicSelector) SelectUncoveredTopics(count int, covered []string) []TopicAssignment {
	if count <= 0 || len(s.all) == 0 {
		return nil
	}

	coveredSet := make(map[string]struct{}, len(covered))
	for _, topic := range covered {
		coveredSet[topic] = struct{}{}
	}

	pool := make([]TopicAssignment, 0, len(s.all))
	for _, a := range s.all {
		if _, seen := coveredSet[a.Topic]; !seen {
			pool = append(pool, a)
		}
	}
	if len(pool) < count {
		pool = append(pool[:0], s.all...)
	}

	s.shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	if count <= len(pool) {
		return pool[:count]
	}
	// Only reachable when count exceeds the taxonomy itself.
	out := make([]TopicAssignment, 0, count)
	for len(out) < count {
		out = append(out, pool[:min(count-len(out), len(pool))]...)
	}
	return out
}
