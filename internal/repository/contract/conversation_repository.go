package contract

import "chatbot-widget/internal/entity"

// ConversationRepository holds the stub gateway's server side booking
// dialogues, keyed by widget session id.
type ConversationRepository interface {
	Save(conversation *entity.StubConversation)
	Get(sessionId string) (*entity.StubConversation, bool)
	Delete(sessionId string)
	OnEvicted(fn func(conversation *entity.StubConversation))
}
