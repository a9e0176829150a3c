package repository

// WaitingQueue - matchmaking slot holding at most one waiting connection.
type WaitingQueue struct {
	waiting string
}

func NewWaitingQueue() *WaitingQueue {
	return &WaitingQueue{}
}

// Peek - returns the waiting connection, if any.
func (that *WaitingQueue) Peek() (string, bool) {
	return that.waiting, that.waiting != ""
}

func (that *WaitingQueue) Set(id string) {
	that.waiting = id
}

// Pop - removes and returns the waiting connection.
func (that *WaitingQueue) Pop() (string, bool) {
	id, ok := that.Peek()
	that.waiting = ""

	return id, ok
}

// Remove - clears the slot only if it holds id.
func (that *WaitingQueue) Remove(id string) bool {
	if id == "" || that.waiting != id {
		return false
	}

	that.waiting = ""

	return true
}

func (that *WaitingQueue) Len() int {
	if that.waiting == "" {
		return 0
	}

	return 1
}
