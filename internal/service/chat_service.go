package service

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/classboardhq/classboard-backend/internal/models"
	"github.com/classboardhq/classboard-backend/internal/realtime"
	"github.com/classboardhq/classboard-backend/internal/repository"
)

const maxChatMessageLength = 4000

var (
	ErrNotParticipant   = errors.New("not a participant in this conversation")
	ErrEmptyMessage     = errors.New("message body cannot be empty")
	ErrMessageTooLong   = errors.New("message body is too long")
	ErrSelfConversation = errors.New("cannot open a conversation with yourself")
)

type ChatService struct {
	convRepo    repository.ConversationRepositoryInterface
	messageRepo repository.ChatMessageRepositoryInterface
	userRepo    repository.UserRepositoryInterface
	feed        *realtime.Feed
	pusher      realtime.Pusher
}

func NewChatService(
	convRepo repository.ConversationRepositoryInterface,
	messageRepo repository.ChatMessageRepositoryInterface,
	userRepo repository.UserRepositoryInterface,
	feed *realtime.Feed,
	pusher realtime.Pusher,
) *ChatService {
	return &ChatService{
		convRepo:    convRepo,
		messageRepo: messageRepo,
		userRepo:    userRepo,
		feed:        feed,
		pusher:      pusher,
	}
}

// OpenDirect returns the 1:1 conversation between two users, creating
// it on first contact. At most one direct conversation exists per pair.
func (s *ChatService) OpenDirect(userID, peerID uint) (*models.Conversation, error) {
	if userID == peerID {
		return nil, ErrSelfConversation
	}
	if _, err := s.userRepo.FindByID(peerID); err != nil {
		return nil, errors.New("user not found")
	}

	conv, err := s.convRepo.FindDirect(userID, peerID)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	conv = &models.Conversation{IsGroup: false, CreatorID: userID}
	if err := s.convRepo.Create(conv); err != nil {
		return nil, err
	}
	if err := s.convRepo.AddParticipant(conv.ID, userID); err != nil {
		return nil, err
	}
	if err := s.convRepo.AddParticipant(conv.ID, peerID); err != nil {
		return nil, err
	}
	return s.convRepo.FindByID(conv.ID)
}

func (s *ChatService) CreateGroup(creatorID uint, title string, memberIDs []uint) (*models.Conversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("title is required")
	}
	if len(memberIDs) == 0 {
		return nil, errors.New("a group needs at least one other member")
	}

	conv := &models.Conversation{Title: title, IsGroup: true, CreatorID: creatorID}
	if err := s.convRepo.Create(conv); err != nil {
		return nil, err
	}
	if err := s.convRepo.AddParticipant(conv.ID, creatorID); err != nil {
		return nil, err
	}
	for _, id := range memberIDs {
		if id == creatorID {
			continue
		}
		if _, err := s.userRepo.FindByID(id); err != nil {
			continue
		}
		if err := s.convRepo.AddParticipant(conv.ID, id); err != nil {
			return nil, err
		}
	}
	return s.convRepo.FindByID(conv.ID)
}

// ConversationSummary is one inbox entry: the conversation, its latest
// message, and the reader's unread count.
type ConversationSummary struct {
	ID               uint                        `json:"id"`
	Title            string                      `json:"title"`
	IsGroup          bool                        `json:"is_group"`
	ParticipantCount int64                       `json:"participant_count"`
	UnreadCount      int64                       `json:"unread_count"`
	LastMessage      *models.ChatMessageResponse `json:"last_message"`
	LastActivity     time.Time                   `json:"last_activity"`
	Peer             *models.UserResponse        `json:"peer,omitempty"`
}

type InboxResponse struct {
	Conversations []ConversationSummary `json:"conversations"`
	TotalUnread   int64                 `json:"total_unread"`
}

// ListConversations builds the user's inbox from a single aggregate
// query; the total is summed from the same rows so it always matches
// the per-conversation counts.
func (s *ChatService) ListConversations(userID uint, limit int) (*InboxResponse, error) {
	rows, err := s.convRepo.ListForUser(userID, limit)
	if err != nil {
		return nil, err
	}

	resp := &InboxResponse{Conversations: make([]ConversationSummary, 0, len(rows))}
	for _, row := range rows {
		summary := ConversationSummary{
			ID:               row.ConversationID,
			Title:            row.Title,
			IsGroup:          row.IsGroup,
			ParticipantCount: row.ParticipantCount,
			UnreadCount:      row.UnreadCount,
			LastActivity:     row.LastActivity,
		}
		// A zero message id marks a conversation that has no messages yet.
		if row.MessageID != 0 {
			summary.LastMessage = &models.ChatMessageResponse{
				ID:             row.MessageID,
				ClientID:       row.MessageClientID,
				ConversationID: row.ConversationID,
				SenderID:       row.MessageSenderID,
				Sender: models.UserResponse{
					ID:       row.SenderID,
					Username: row.SenderUsername,
					FullName: row.SenderFullName,
					Avatar:   row.SenderAvatar,
				},
				Body:      row.MessageBody,
				CreatedAt: row.MessageCreatedAt,
			}
		}
		if !row.IsGroup && row.PeerID != nil {
			peer := &models.UserResponse{ID: *row.PeerID}
			if row.PeerUsername != nil {
				peer.Username = *row.PeerUsername
			}
			if row.PeerFullName != nil {
				peer.FullName = *row.PeerFullName
			}
			if row.PeerAvatar != nil {
				peer.Avatar = *row.PeerAvatar
			}
			if row.PeerIsOnline != nil {
				peer.IsOnline = *row.PeerIsOnline
			}
			peer.LastSeen = row.PeerLastSeen
			summary.Peer = peer
		}
		resp.TotalUnread += row.UnreadCount
		resp.Conversations = append(resp.Conversations, summary)
	}
	return resp, nil
}

func (s *ChatService) GetConversation(convID, userID uint) (*models.Conversation, error) {
	ok, err := s.convRepo.IsParticipant(convID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotParticipant
	}
	return s.convRepo.FindByID(convID)
}

func (s *ChatService) GetMessages(convID, userID, cursor uint, limit int) ([]models.ChatMessage, error) {
	ok, err := s.convRepo.IsParticipant(convID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotParticipant
	}
	return s.messageRepo.ListByConversation(convID, cursor, limit)
}

// Send persists a message and fans it out to the other participants.
// Resends with the same client ID return the original message instead
// of creating a duplicate.
func (s *ChatService) Send(convID, senderID uint, clientID, body string) (*models.ChatMessage, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyMessage
	}
	if len(body) > maxChatMessageLength {
		return nil, ErrMessageTooLong
	}

	ok, err := s.convRepo.IsParticipant(convID, senderID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotParticipant
	}

	if clientID == "" {
		clientID = uuid.New().String()
	} else {
		if existing, err := s.messageRepo.FindByClientID(clientID, senderID); err == nil {
			return existing, nil
		}
	}

	msg := &models.ChatMessage{
		ClientID:       clientID,
		ConversationID: convID,
		SenderID:       senderID,
		Body:           body,
	}
	if err := s.messageRepo.Create(msg); err != nil {
		return nil, err
	}

	msg, err = s.messageRepo.FindByID(msg.ID)
	if err != nil {
		return nil, err
	}

	// Sending implies having read everything up to this point.
	_ = s.convRepo.MarkReadMonotonic(convID, senderID, msg.CreatedAt)

	s.fanOut(msg)

	if s.feed != nil {
		s.feed.Publish(realtime.Event{
			Kind:           realtime.EventChatMessageCreated,
			ConversationID: convID,
			ItemID:         msg.ID,
			ActorID:        senderID,
			OccurredAt:     msg.CreatedAt,
		})
	}
	return msg, nil
}

// MarkRead advances the reader's high-water mark. A stale timestamp is
// a no-op; counts only ever move down.
func (s *ChatService) MarkRead(convID, userID uint, readAt time.Time) error {
	ok, err := s.convRepo.IsParticipant(convID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotParticipant
	}
	if readAt.IsZero() {
		readAt = time.Now()
	}
	return s.convRepo.MarkReadMonotonic(convID, userID, readAt)
}

// OtherParticipantIDs lists everyone in the conversation except the caller.
func (s *ChatService) OtherParticipantIDs(convID, userID uint) ([]uint, error) {
	ok, err := s.convRepo.IsParticipant(convID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotParticipant
	}
	all, err := s.convRepo.GetParticipantIDs(convID)
	if err != nil {
		return nil, err
	}
	others := make([]uint, 0, len(all))
	for _, id := range all {
		if id != userID {
			others = append(others, id)
		}
	}
	return others, nil
}

func (s *ChatService) fanOut(msg *models.ChatMessage) {
	if s.pusher == nil {
		return
	}
	participantIDs, err := s.convRepo.GetParticipantIDs(msg.ConversationID)
	if err != nil {
		return
	}
	frame := map[string]interface{}{
		"type":    "chat_message",
		"message": msg.ToResponse(),
	}
	for _, id := range participantIDs {
		if id == msg.SenderID {
			continue
		}
		_ = s.pusher.Push(id, frame)
	}
}
