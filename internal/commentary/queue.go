package commentary

// QueuedComment waits in the pending queue until the display loop shows it.
type QueuedComment struct {
	Text       string `json:"text"`
	Attachment string `json:"attachment,omitempty"`
}

type pendingQueue struct {
	items []QueuedComment
}

func (q *pendingQueue) push(items ...QueuedComment) {
	q.items = append(q.items, items...)
}

func (q *pendingQueue) pop() (QueuedComment, bool) {
	if len(q.items) == 0 {
		return QueuedComment{}, false
	}
	item := q.items[0]
	q.items[0] = QueuedComment{}
	q.items = q.items[1:]
	return item, true
}

func (q *pendingQueue) len() int {
	return len(q.items)
}

func (q *pendingQueue) clear() {
	q.items = nil
}

// batchItems turns fresh comments into queue entries. Only the first entry
// carries the frame so the same image is not repeated across the batch.
func batchItems(comments []string, frame string) []QueuedComment {
	items := make([]QueuedComment, len(comments))
	for i, text := range comments {
		items[i] = QueuedComment{Text: text}
		if i == 0 {
			items[i].Attachment = frame
		}
	}
	return items
}
