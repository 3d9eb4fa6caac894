package entity

type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is one chat line. Timestamp is unix milliseconds.
type Message struct {
	Id        string `json:"id"`
	Text      string `json:"text"`
	Sender    Sender `json:"sender"`
	Timestamp int64  `json:"timestamp"`
}

type NewMessage struct {
	Text   string
	Sender Sender
}
