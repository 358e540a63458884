package ledger

import (
	"context"
	"log"
	"time"
)

const journalQueueSize = 256

// Journal decouples the hub's hot path from sqlite: entries are queued and
// written by a single goroutine. When the queue is full the entry is
// dropped; losing an audit row is preferable to stalling a broadcast.
type Journal struct {
	store *Store
	ch    chan journalEntry
	done  chan struct{}
}

type journalEntry struct {
	kind     string
	connID   string
	userID   string
	endpoint string
	reason   string
	topic    string
	sent     int64
	failed   int64
	at       time.Time
}

func NewJournal(store *Store) *Journal {
	j := &Journal{
		store: store,
		ch:    make(chan journalEntry, journalQueueSize),
		done:  make(chan struct{}),
	}
	go j.run()
	return j
}

// Close drains pending entries and stops the writer.
func (j *Journal) Close() {
	close(j.ch)
	<-j.done
}

func (j *Journal) run() {
	defer close(j.done)
	ctx := context.Background()
	for e := range j.ch {
		var err error
		switch e.kind {
		case "opened":
			err = j.store.LogConnectionOpened(ctx, e.connID, e.userID, e.endpoint, e.at)
		case "closed":
			err = j.store.LogConnectionClosed(ctx, e.connID, e.reason, e.at)
		case "delivery":
			err = j.store.AddDelivery(ctx, e.topic, e.sent, e.failed)
		}
		if err != nil {
			log.Printf("ledger event=journal_write_failed kind=%s err=%v", e.kind, err)
		}
	}
}

func (j *Journal) enqueue(e journalEntry) {
	select {
	case j.ch <- e:
	default:
		log.Printf("ledger event=journal_overflow kind=%s", e.kind)
	}
}

// ConnectionOpened implements hub.Auditor.
func (j *Journal) ConnectionOpened(connID, userID, endpoint string, at time.Time) {
	j.enqueue(journalEntry{kind: "opened", connID: connID, userID: userID, endpoint: endpoint, at: at})
}

// ConnectionClosed implements hub.Auditor.
func (j *Journal) ConnectionClosed(connID, reason string, at time.Time) {
	j.enqueue(journalEntry{kind: "closed", connID: connID, reason: reason, at: at})
}

// RecordDelivery implements broadcast.Recorder.
func (j *Journal) RecordDelivery(topic string, sent, failed int) {
	if sent == 0 && failed == 0 {
		return
	}
	j.enqueue(journalEntry{kind: "delivery", topic: topic, sent: int64(sent), failed: int64(failed)})
}
