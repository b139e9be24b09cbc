package repository

import (
	"strings"
	"time"

	"github.com/classboardhq/classboard-backend/internal/models"
	"gorm.io/gorm"
)

type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

func (r *ConversationRepository) Create(conv *models.Conversation) error {
	return r.db.Create(conv).Error
}

func (r *ConversationRepository) FindByID(id uint) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.db.Preload("Participants").Preload("Participants.User").First(&conv, id).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// FindDirect locates the existing 1:1 conversation between two users.
func (r *ConversationRepository) FindDirect(userID1, userID2 uint) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.db.Raw(`
		SELECT c.* FROM conversations c
		JOIN conversation_participants p1 ON p1.conversation_id = c.id AND p1.user_id = ?
		JOIN conversation_participants p2 ON p2.conversation_id = c.id AND p2.user_id = ?
		WHERE c.is_group = false AND c.deleted_at IS NULL
		LIMIT 1
	`, userID1, userID2).Scan(&conv).Error
	if err != nil {
		return nil, err
	}
	if conv.ID == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &conv, nil
}

func (r *ConversationRepository) AddParticipant(convID, userID uint) error {
	return r.db.Exec(`
		INSERT INTO conversation_participants (conversation_id, user_id, joined_at)
		VALUES (?, ?, NOW())
		ON CONFLICT (conversation_id, user_id) DO NOTHING
	`, convID, userID).Error
}

func (r *ConversationRepository) RemoveParticipant(convID, userID uint) error {
	return r.db.Where("conversation_id = ? AND user_id = ?", convID, userID).
		Delete(&models.ConversationParticipant{}).Error
}

func (r *ConversationRepository) IsParticipant(convID, userID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", convID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *ConversationRepository) GetParticipantIDs(convID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.ConversationParticipant{}).
		Where("conversation_id = ?", convID).
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *ConversationRepository) GetLastReadAt(convID, userID uint) (*time.Time, error) {
	var p models.ConversationParticipant
	err := r.db.Where("conversation_id = ? AND user_id = ?", convID, userID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return p.LastReadAt, nil
}

// MarkReadMonotonic advances last_read_at; it never moves backwards, so a
// stale client resend cannot resurrect unread counts.
func (r *ConversationRepository) MarkReadMonotonic(convID, userID uint, readAt time.Time) error {
	return r.db.Exec(`
		UPDATE conversation_participants
		SET last_read_at = GREATEST(COALESCE(last_read_at, 'epoch'::timestamptz), ?)
		WHERE conversation_id = ? AND user_id = ?
	`, readAt, convID, userID).Error
}

// ConversationRow is a denormalized row representing one conversation in the
// user's inbox: last message, unread count, and the peer profile for direct
// conversations.
//
// NOTE: deliberately not the full models.User / models.ChatMessage shape to
// avoid leaking sensitive fields and to keep the query efficient.
type ConversationRow struct {
	ConversationID   uint   `gorm:"column:conversation_id"`
	Title            string `gorm:"column:title"`
	IsGroup          bool   `gorm:"column:is_group"`
	ParticipantCount int64  `gorm:"column:participant_count"`

	UnreadCount int64 `gorm:"column:unread_count"`

	MessageID        uint      `gorm:"column:message_id"`
	MessageClientID  string    `gorm:"column:message_client_id"`
	MessageSenderID  uint      `gorm:"column:message_sender_id"`
	MessageBody      string    `gorm:"column:message_body"`
	MessageCreatedAt time.Time `gorm:"column:message_created_at"`

	LastActivity time.Time `gorm:"column:last_activity"`

	SenderID       uint   `gorm:"column:sender_id"`
	SenderUsername string `gorm:"column:sender_username"`
	SenderFullName string `gorm:"column:sender_full_name"`
	SenderAvatar   string `gorm:"column:sender_avatar"`

	PeerID       *uint      `gorm:"column:peer_id"`
	PeerUsername *string    `gorm:"column:peer_username"`
	PeerFullName *string    `gorm:"column:peer_full_name"`
	PeerAvatar   *string    `gorm:"column:peer_avatar"`
	PeerIsOnline *bool      `gorm:"column:peer_is_online"`
	PeerLastSeen *time.Time `gorm:"column:peer_last_seen"`
}

// ListForUser returns the user's conversations with last message and unread
// count in a single statement: the window functions pick the latest message
// per conversation and count messages newer than the reader's last_read_at,
// reading both from the same snapshot. No per-conversation fan-out.
// Conversations without any messages yet are included through a separate
// branch with a zero message_id; callers treat that as "no last message".
func (r *ConversationRepository) ListForUser(userID uint, limit int) ([]ConversationRow, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}

	query := strings.TrimSpace(`
WITH ranked AS (
	SELECT
		m.conversation_id AS conversation_id,
		m.id AS message_id,
		m.client_id AS message_client_id,
		m.sender_id AS message_sender_id,
		m.body AS message_body,
		m.created_at AS message_created_at,
		m.created_at AS last_activity,
		ROW_NUMBER() OVER (
			PARTITION BY m.conversation_id
			ORDER BY m.created_at DESC, m.id DESC
		) AS rn,
		SUM(CASE WHEN m.sender_id <> ? AND m.created_at > COALESCE(cp.last_read_at, 'epoch'::timestamptz) THEN 1 ELSE 0 END) OVER (
			PARTITION BY m.conversation_id
		) AS unread_count
	FROM chat_messages m
	JOIN conversation_participants cp ON cp.conversation_id = m.conversation_id AND cp.user_id = ?
	WHERE m.deleted_at IS NULL
),
empty AS (
	SELECT
		ce.id AS conversation_id,
		0::bigint AS message_id,
		''::text AS message_client_id,
		0::bigint AS message_sender_id,
		''::text AS message_body,
		ce.created_at AS message_created_at,
		ce.created_at AS last_activity,
		1::bigint AS rn,
		0::bigint AS unread_count
	FROM conversations ce
	JOIN conversation_participants cpe ON cpe.conversation_id = ce.id AND cpe.user_id = ?
	WHERE ce.deleted_at IS NULL
		AND NOT EXISTS (
			SELECT 1 FROM chat_messages me
			WHERE me.conversation_id = ce.id AND me.deleted_at IS NULL
		)
),
combined AS (
	SELECT * FROM ranked WHERE rn = 1
	UNION ALL
	SELECT * FROM empty
)
SELECT
	t.conversation_id,
	c.title,
	c.is_group,
	(
		SELECT COUNT(*)
		FROM conversation_participants cp2
		WHERE cp2.conversation_id = t.conversation_id
	) AS participant_count,
	t.unread_count,
	t.message_id,
	t.message_client_id,
	t.message_sender_id,
	t.message_body,
	t.message_created_at,
	t.last_activity,
	COALESCE(sender.id, 0) AS sender_id,
	COALESCE(sender.username, '') AS sender_username,
	COALESCE(sender.full_name, '') AS sender_full_name,
	COALESCE(sender.avatar, '') AS sender_avatar,
	peer.id AS peer_id,
	peer.username AS peer_username,
	peer.full_name AS peer_full_name,
	peer.avatar AS peer_avatar,
	peer.is_online AS peer_is_online,
	peer.last_seen AS peer_last_seen
FROM combined t
JOIN conversations c ON c.id = t.conversation_id AND c.deleted_at IS NULL
LEFT JOIN users sender ON sender.id = t.message_sender_id
LEFT JOIN users peer ON c.is_group = false AND peer.id = (
	SELECT cp3.user_id
	FROM conversation_participants cp3
	WHERE cp3.conversation_id = t.conversation_id AND cp3.user_id <> ?
	ORDER BY cp3.user_id
	LIMIT 1
)
ORDER BY t.last_activity DESC, t.message_id DESC
LIMIT ?
`)

	var rows []ConversationRow
	err := r.db.Raw(query, userID, userID, userID, userID, limit).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
