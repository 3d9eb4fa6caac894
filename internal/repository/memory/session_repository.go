package memory

import (
	"time"

	"chatbot-widget/internal/entity"

	"github.com/patrickmn/go-cache"
)

type SessionRepository struct {
	cache *cache.Cache
}

// NewSessionRepository stores stub dialogues for ttl after their last save,
// purging expired ones every ttl/3.
func NewSessionRepository(ttl time.Duration) *SessionRepository {
	c := cache.New(ttl, ttl/3)
	return &SessionRepository{
		cache: c,
	}
}

func (r *SessionRepository) Save(conversation *entity.StubConversation) {
	r.cache.Set(conversation.SessionId, conversation, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(sessionId string) (*entity.StubConversation, bool) {
	if x, found := r.cache.Get(sessionId); found {
		return x.(*entity.StubConversation), true
	}
	return nil, false
}

func (r *SessionRepository) Delete(sessionId string) {
	r.cache.Delete(sessionId)
}

// OnEvicted registers fn for dialogues that leave the repository, whether
// they expired or were deleted.
func (r *SessionRepository) OnEvicted(fn func(conversation *entity.StubConversation)) {
	r.cache.OnEvicted(func(_ string, v interface{}) {
		fn(v.(*entity.StubConversation))
	})
}
