package async

// A Mailbox tracks in-progress AsyncErrors and invokes their callbacks once
// they complete. It is not thread-safe: it is owned by a single goroutine so
// callbacks always run on that goroutine, one at a time.
type Mailbox struct {
	msgs []message
}

// The callback invoked when an AsyncError completes.
type AsyncErrorResponseHandler func(error)

type message struct {
	Err      *AsyncError
	callback AsyncErrorResponseHandler
}

func NewMailbox() *Mailbox {
	return &Mailbox{
		msgs: make([]message, 0),
	}
}

func (bx *Mailbox) Count() int {
	return len(bx.msgs)
}

// NewAsyncError registers cb, which is invoked by the first ProcessMessages
// call after the returned AsyncError has been completed.
func (bx *Mailbox) NewAsyncError(cb AsyncErrorResponseHandler) *AsyncError {
	msg := message{Err: newAsyncError(), callback: cb}
	bx.msgs = append(bx.msgs, msg)
	return msg.Err
}

// ProcessMessages runs the callbacks of completed messages and drops them.
func (bx *Mailbox) ProcessMessages() {
	var pending []message
	for _, msg := range bx.msgs {
		if ok, err := msg.Err.TryGetValue(); ok {
			msg.callback(err)
		} else {
			pending = append(pending, msg)
		}
	}
	bx.msgs = pending
}
