package repository

import (
	"time"

	"github.com/classboardhq/classboard-backend/internal/models"
)

// UserRepositoryInterface defines the contract for user repository operations
type UserRepositoryInterface interface {
	Create(user *models.User) error
	FindByEmail(email string) (*models.User, error)
	FindByUsername(username string) (*models.User, error)
	FindByID(id uint) (*models.User, error)
	Update(user *models.User) error
	UpdateOnlineStatus(userID uint, isOnline bool) error
	SearchUsers(query string, limit int) ([]models.User, error)
}

// SchoolRepositoryInterface defines the contract for school repository operations
type SchoolRepositoryInterface interface {
	Create(school *models.School) error
	FindByID(id uint) (*models.School, error)
	FindByDomain(domain string) (*models.School, error)
	Update(school *models.School) error
	List(limit int) ([]models.School, error)
}

// ClassRepositoryInterface defines the contract for class and roster operations
type ClassRepositoryInterface interface {
	Create(class *models.Class) error
	FindByID(id uint) (*models.Class, error)
	FindByJoinCode(code string) (*models.Class, error)
	Update(class *models.Class) error
	ListBySchool(schoolID uint) ([]models.Class, error)
	AddMember(classID, userID uint, role models.ClassRole) error
	RemoveMember(classID, userID uint) error
	GetMembers(classID uint) ([]models.ClassMember, error)
	IsMember(classID, userID uint) (bool, error)
	GetMemberRole(classID, userID uint) (models.ClassRole, error)
	GetUserClasses(userID uint) ([]models.Class, error)
	GetUserClassIDs(userID uint) ([]uint, error)
}

// TopicRepositoryInterface defines the contract for topic operations
type TopicRepositoryInterface interface {
	Create(topic *models.Topic) error
	FindByID(id uint) (*models.Topic, error)
	Update(topic *models.Topic) error
	Delete(id uint) error
	ListByClass(classID uint) ([]models.Topic, error)
}

// ContentRef is the minimal projection of a content item used for unread
// accounting: which class it belongs to and its identity.
type ContentRef struct {
	ID      uint `gorm:"column:id"`
	ClassID uint `gorm:"column:class_id"`
}

// ClassworkRepositoryInterface defines the contract for classwork operations
type ClassworkRepositoryInterface interface {
	Create(work *models.Classwork) error
	FindByID(id uint) (*models.Classwork, error)
	Update(work *models.Classwork) error
	Delete(id uint) error
	ListByClass(classID uint) ([]models.Classwork, error)
	ListByTopic(topicID uint) ([]models.Classwork, error)
	ListRefsByClasses(classIDs []uint) ([]ContentRef, error)
}

// AnnouncementRepositoryInterface defines the contract for announcement operations
type AnnouncementRepositoryInterface interface {
	Create(a *models.Announcement) error
	FindByID(id uint) (*models.Announcement, error)
	Update(a *models.Announcement) error
	Delete(id uint) error
	ListByClass(classID uint) ([]models.Announcement, error)
	ListRefsByClasses(classIDs []uint) ([]ContentRef, error)
}

// ReadMarkerRepositoryInterface defines the contract for read marker operations
type ReadMarkerRepositoryInterface interface {
	Upsert(userID, itemID uint, kind models.ContentKind) error
	ListItemIDs(userID uint, kind models.ContentKind) ([]uint, error)
	DeleteForItem(itemID uint, kind models.ContentKind) error
}

// SubmissionRepositoryInterface defines the contract for submission operations
type SubmissionRepositoryInterface interface {
	Create(s *models.Submission) error
	FindByID(id uint) (*models.Submission, error)
	FindByClassworkAndStudent(classworkID, studentID uint) (*models.Submission, error)
	Update(s *models.Submission) error
	ListByClasswork(classworkID uint) ([]models.Submission, error)
	ListByStudent(studentID uint) ([]models.Submission, error)
}

// ConversationRepositoryInterface defines the contract for conversation operations
type ConversationRepositoryInterface interface {
	Create(conv *models.Conversation) error
	FindByID(id uint) (*models.Conversation, error)
	FindDirect(userID1, userID2 uint) (*models.Conversation, error)
	AddParticipant(convID, userID uint) error
	RemoveParticipant(convID, userID uint) error
	IsParticipant(convID, userID uint) (bool, error)
	GetParticipantIDs(convID uint) ([]uint, error)
	GetLastReadAt(convID, userID uint) (*time.Time, error)
	MarkReadMonotonic(convID, userID uint, readAt time.Time) error
	ListForUser(userID uint, limit int) ([]ConversationRow, error)
}

// ChatMessageRepositoryInterface defines the contract for chat message operations
type ChatMessageRepositoryInterface interface {
	Create(message *models.ChatMessage) error
	FindByID(id uint) (*models.ChatMessage, error)
	FindByClientID(clientID string, senderID uint) (*models.ChatMessage, error)
	ListByConversation(convID uint, cursor uint, limit int) ([]models.ChatMessage, error)
	CountUnread(convID, userID uint, since *time.Time) (int64, error)
}

// RefreshTokenRepositoryInterface defines the contract for refresh token repository operations
type RefreshTokenRepositoryInterface interface {
	Create(token *models.RefreshToken) error
	FindValidByHash(tokenHash string) (*models.RefreshToken, error)
	RevokeByHash(tokenHash string) error
}

// PendingNotificationRepositoryInterface defines the contract for the offline
// notification queue.
type PendingNotificationRepositoryInterface interface {
	Enqueue(userID uint, kind string, payload string, priority int) error
	GetPendingForUser(userID uint, limit int) ([]models.PendingNotification, error)
	GetRetryable(limit int) ([]models.PendingNotification, error)
	MarkAttempted(id uint, attempts int, nextRetry *time.Time) error
	Delete(id uint) error
	DeleteBatch(ids []uint) error
	CountPendingForUser(userID uint) (int64, error)
	CleanupOld(olderThan time.Duration) error
}
