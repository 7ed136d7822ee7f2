package insights

import (
	"sort"
	"time"

	"fintrack/internal/core"
)

// DayBucket holds the records that fall on one calendar day, in input order.
type DayBucket struct {
	Transactions []core.Transaction `json:"transactions"`
	Goals        []core.Goal        `json:"goals"`
}

// Buckets maps calendar-day keys to the records of that day.
type Buckets struct {
	Days map[string]*DayBucket `json:"days"`

	DroppedTransactions int `json:"droppedTransactions"`
	DroppedGoals        int `json:"droppedGoals"`
}

// BucketByDay groups transactions and goals by local calendar day. Records
// whose dates do not parse are left out and counted as dropped. The result
// is rebuilt from scratch on every call.
func BucketByDay(loc *time.Location, txs []core.Transaction, goals []core.Goal) Buckets {
	b := Buckets{Days: make(map[string]*DayBucket)}

	for _, t := range txs {
		key, ok := DayKey(loc, TransactionDates(t)...)
		if !ok {
			b.DroppedTransactions++
			continue
		}
		b.day(key).Transactions = append(b.day(key).Transactions, t)
	}
	for _, g := range goals {
		key, ok := DayKey(loc, GoalDates(g)...)
		if !ok {
			b.DroppedGoals++
			continue
		}
		b.day(key).Goals = append(b.day(key).Goals, g)
	}
	return b
}

func (b Buckets) day(key string) *DayBucket {
	d, ok := b.Days[key]
	if !ok {
		d = &DayBucket{}
		b.Days[key] = d
	}
	return d
}

// Keys returns the day keys in ascending order.
func (b Buckets) Keys() []string {
	keys := make([]string, 0, len(b.Days))
	for k := range b.Days {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Day returns the bucket for key, empty when the day has no records.
func (b Buckets) Day(key string) DayBucket {
	if d, ok := b.Days[key]; ok {
		return *d
	}
	return DayBucket{}
}

// TransactionCount is the number of bucketed transactions.
func (b Buckets) TransactionCount() int {
	n := 0
	for _, d := range b.Days {
		n += len(d.Transactions)
	}
	return n
}
