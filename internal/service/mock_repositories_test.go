package service

import (
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/classboardhq/classboard-backend/internal/models"
	"github.com/classboardhq/classboard-backend/internal/repository"
)

// In-memory repository mocks shared by the service tests.

type MockUserRepository struct {
	users  map[uint]*models.User
	nextID uint
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[uint]*models.User), nextID: 1}
}

func (m *MockUserRepository) Create(user *models.User) error {
	if user.ID == 0 {
		user.ID = m.nextID
		m.nextID++
	}
	m.users[user.ID] = user
	return nil
}

func (m *MockUserRepository) FindByEmail(email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockUserRepository) FindByUsername(username string) (*models.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockUserRepository) FindByID(id uint) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockUserRepository) Update(user *models.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.users[user.ID] = user
	return nil
}

func (m *MockUserRepository) UpdateOnlineStatus(userID uint, isOnline bool) error {
	if u, ok := m.users[userID]; ok {
		u.IsOnline = isOnline
		now := time.Now()
		u.LastSeen = &now
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (m *MockUserRepository) SearchUsers(query string, limit int) ([]models.User, error) {
	var result []models.User
	for _, u := range m.users {
		if len(result) >= limit {
			break
		}
		if strings.Contains(u.Username, query) || strings.Contains(u.FullName, query) {
			result = append(result, *u)
		}
	}
	return result, nil
}

type MockSchoolRepository struct {
	schools map[uint]*models.School
	nextID  uint
}

func NewMockSchoolRepository() *MockSchoolRepository {
	return &MockSchoolRepository{schools: make(map[uint]*models.School), nextID: 1}
}

func (m *MockSchoolRepository) Create(school *models.School) error {
	if school.ID == 0 {
		school.ID = m.nextID
		m.nextID++
	}
	m.schools[school.ID] = school
	return nil
}

func (m *MockSchoolRepository) FindByID(id uint) (*models.School, error) {
	if s, ok := m.schools[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockSchoolRepository) FindByDomain(domain string) (*models.School, error) {
	for _, s := range m.schools {
		if s.Domain == domain {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockSchoolRepository) Update(school *models.School) error {
	m.schools[school.ID] = school
	return nil
}

func (m *MockSchoolRepository) List(limit int) ([]models.School, error) {
	var result []models.School
	for _, s := range m.schools {
		if len(result) >= limit {
			break
		}
		result = append(result, *s)
	}
	return result, nil
}

type memberKey struct {
	classID uint
	userID  uint
}

type MockClassRepository struct {
	classes map[uint]*models.Class
	members map[memberKey]models.ClassRole
	nextID  uint
}

func NewMockClassRepository() *MockClassRepository {
	return &MockClassRepository{
		classes: make(map[uint]*models.Class),
		members: make(map[memberKey]models.ClassRole),
		nextID:  1,
	}
}

func (m *MockClassRepository) Create(class *models.Class) error {
	if class.ID == 0 {
		class.ID = m.nextID
		m.nextID++
	}
	m.classes[class.ID] = class
	return nil
}

func (m *MockClassRepository) FindByID(id uint) (*models.Class, error) {
	if c, ok := m.classes[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockClassRepository) FindByJoinCode(code string) (*models.Class, error) {
	for _, c := range m.classes {
		if c.JoinCode == code {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockClassRepository) Update(class *models.Class) error {
	if _, ok := m.classes[class.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.classes[class.ID] = class
	return nil
}

func (m *MockClassRepository) ListBySchool(schoolID uint) ([]models.Class, error) {
	var result []models.Class
	for _, c := range m.classes {
		if c.SchoolID == schoolID {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (m *MockClassRepository) AddMember(classID, userID uint, role models.ClassRole) error {
	m.members[memberKey{classID, userID}] = role
	return nil
}

func (m *MockClassRepository) RemoveMember(classID, userID uint) error {
	delete(m.members, memberKey{classID, userID})
	return nil
}

func (m *MockClassRepository) GetMembers(classID uint) ([]models.ClassMember, error) {
	var result []models.ClassMember
	for k, role := range m.members {
		if k.classID == classID {
			result = append(result, models.ClassMember{ClassID: k.classID, UserID: k.userID, Role: role})
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })
	return result, nil
}

func (m *MockClassRepository) IsMember(classID, userID uint) (bool, error) {
	_, ok := m.members[memberKey{classID, userID}]
	return ok, nil
}

func (m *MockClassRepository) GetMemberRole(classID, userID uint) (models.ClassRole, error) {
	role, ok := m.members[memberKey{classID, userID}]
	if !ok {
		return "", gorm.ErrRecordNotFound
	}
	return role, nil
}

func (m *MockClassRepository) GetUserClasses(userID uint) ([]models.Class, error) {
	var result []models.Class
	for k := range m.members {
		if k.userID == userID {
			if c, ok := m.classes[k.classID]; ok {
				result = append(result, *c)
			}
		}
	}
	return result, nil
}

func (m *MockClassRepository) GetUserClassIDs(userID uint) ([]uint, error) {
	var ids []uint
	for k := range m.members {
		if k.userID == userID {
			ids = append(ids, k.classID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

type MockTopicRepository struct {
	topics map[uint]*models.Topic
	nextID uint
}

func NewMockTopicRepository() *MockTopicRepository {
	return &MockTopicRepository{topics: make(map[uint]*models.Topic), nextID: 1}
}

func (m *MockTopicRepository) Create(topic *models.Topic) error {
	if topic.ID == 0 {
		topic.ID = m.nextID
		m.nextID++
	}
	m.topics[topic.ID] = topic
	return nil
}

func (m *MockTopicRepository) FindByID(id uint) (*models.Topic, error) {
	if t, ok := m.topics[id]; ok {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockTopicRepository) Update(topic *models.Topic) error {
	m.topics[topic.ID] = topic
	return nil
}

func (m *MockTopicRepository) Delete(id uint) error {
	delete(m.topics, id)
	return nil
}

func (m *MockTopicRepository) ListByClass(classID uint) ([]models.Topic, error) {
	var result []models.Topic
	for _, t := range m.topics {
		if t.ClassID == classID {
			result = append(result, *t)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Position < result[j].Position })
	return result, nil
}

type MockClassworkRepository struct {
	items  map[uint]*models.Classwork
	nextID uint
}

func NewMockClassworkRepository() *MockClassworkRepository {
	return &MockClassworkRepository{items: make(map[uint]*models.Classwork), nextID: 1}
}

func (m *MockClassworkRepository) Create(work *models.Classwork) error {
	if work.ID == 0 {
		work.ID = m.nextID
		m.nextID++
	}
	m.items[work.ID] = work
	return nil
}

func (m *MockClassworkRepository) FindByID(id uint) (*models.Classwork, error) {
	if w, ok := m.items[id]; ok {
		return w, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockClassworkRepository) Update(work *models.Classwork) error {
	if _, ok := m.items[work.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.items[work.ID] = work
	return nil
}

func (m *MockClassworkRepository) Delete(id uint) error {
	delete(m.items, id)
	return nil
}

func (m *MockClassworkRepository) ListByClass(classID uint) ([]models.Classwork, error) {
	var result []models.Classwork
	for _, w := range m.items {
		if w.ClassID == classID {
			result = append(result, *w)
		}
	}
	return result, nil
}

func (m *MockClassworkRepository) ListByTopic(topicID uint) ([]models.Classwork, error) {
	var result []models.Classwork
	for _, w := range m.items {
		if w.TopicID != nil && *w.TopicID == topicID {
			result = append(result, *w)
		}
	}
	return result, nil
}

func (m *MockClassworkRepository) ListRefsByClasses(classIDs []uint) ([]repository.ContentRef, error) {
	set := make(map[uint]struct{}, len(classIDs))
	for _, id := range classIDs {
		set[id] = struct{}{}
	}
	var refs []repository.ContentRef
	for _, w := range m.items {
		if _, ok := set[w.ClassID]; ok {
			refs = append(refs, repository.ContentRef{ID: w.ID, ClassID: w.ClassID})
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].ID < refs[j].ID })
	return refs, nil
}

type MockAnnouncementRepository struct {
	items  map[uint]*models.Announcement
	nextID uint
}

func NewMockAnnouncementRepository() *MockAnnouncementRepository {
	return &MockAnnouncementRepository{items: make(map[uint]*models.Announcement), nextID: 1}
}

func (m *MockAnnouncementRepository) Create(a *models.Announcement) error {
	if a.ID == 0 {
		a.ID = m.nextID
		m.nextID++
	}
	m.items[a.ID] = a
	return nil
}

func (m *MockAnnouncementRepository) FindByID(id uint) (*models.Announcement, error) {
	if a, ok := m.items[id]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockAnnouncementRepository) Update(a *models.Announcement) error {
	m.items[a.ID] = a
	return nil
}

func (m *MockAnnouncementRepository) Delete(id uint) error {
	delete(m.items, id)
	return nil
}

func (m *MockAnnouncementRepository) ListByClass(classID uint) ([]models.Announcement, error) {
	var result []models.Announcement
	for _, a := range m.items {
		if a.ClassID == classID {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (m *MockAnnouncementRepository) ListRefsByClasses(classIDs []uint) ([]repository.ContentRef, error) {
	set := make(map[uint]struct{}, len(classIDs))
	for _, id := range classIDs {
		set[id] = struct{}{}
	}
	var refs []repository.ContentRef
	for _, a := range m.items {
		if _, ok := set[a.ClassID]; ok {
			refs = append(refs, repository.ContentRef{ID: a.ID, ClassID: a.ClassID})
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].ID < refs[j].ID })
	return refs, nil
}

type markerKey struct {
	userID uint
	itemID uint
	kind   models.ContentKind
}

type MockReadMarkerRepository struct {
	markers map[markerKey]struct{}
}

func NewMockReadMarkerRepository() *MockReadMarkerRepository {
	return &MockReadMarkerRepository{markers: make(map[markerKey]struct{})}
}

func (m *MockReadMarkerRepository) Upsert(userID, itemID uint, kind models.ContentKind) error {
	m.markers[markerKey{userID, itemID, kind}] = struct{}{}
	return nil
}

func (m *MockReadMarkerRepository) ListItemIDs(userID uint, kind models.ContentKind) ([]uint, error) {
	var ids []uint
	for k := range m.markers {
		if k.userID == userID && k.kind == kind {
			ids = append(ids, k.itemID)
		}
	}
	return ids, nil
}

func (m *MockReadMarkerRepository) DeleteForItem(itemID uint, kind models.ContentKind) error {
	for k := range m.markers {
		if k.itemID == itemID && k.kind == kind {
			delete(m.markers, k)
		}
	}
	return nil
}

type MockSubmissionRepository struct {
	items  map[uint]*models.Submission
	nextID uint
}

func NewMockSubmissionRepository() *MockSubmissionRepository {
	return &MockSubmissionRepository{items: make(map[uint]*models.Submission), nextID: 1}
}

func (m *MockSubmissionRepository) Create(s *models.Submission) error {
	if s.ID == 0 {
		s.ID = m.nextID
		m.nextID++
	}
	m.items[s.ID] = s
	return nil
}

func (m *MockSubmissionRepository) FindByID(id uint) (*models.Submission, error) {
	if s, ok := m.items[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockSubmissionRepository) FindByClassworkAndStudent(classworkID, studentID uint) (*models.Submission, error) {
	for _, s := range m.items {
		if s.ClassworkID == classworkID && s.StudentID == studentID {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockSubmissionRepository) Update(s *models.Submission) error {
	if _, ok := m.items[s.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.items[s.ID] = s
	return nil
}

func (m *MockSubmissionRepository) ListByClasswork(classworkID uint) ([]models.Submission, error) {
	var result []models.Submission
	for _, s := range m.items {
		if s.ClassworkID == classworkID {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *MockSubmissionRepository) ListByStudent(studentID uint) ([]models.Submission, error) {
	var result []models.Submission
	for _, s := range m.items {
		if s.StudentID == studentID {
			result = append(result, *s)
		}
	}
	return result, nil
}

type participantKey struct {
	convID uint
	userID uint
}

type MockConversationRepository struct {
	conversations map[uint]*models.Conversation
	participants  map[participantKey]*time.Time
	rows          []repository.ConversationRow
	nextID        uint
}

func NewMockConversationRepository() *MockConversationRepository {
	return &MockConversationRepository{
		conversations: make(map[uint]*models.Conversation),
		participants:  make(map[participantKey]*time.Time),
		nextID:        1,
	}
}

func (m *MockConversationRepository) Create(conv *models.Conversation) error {
	if conv.ID == 0 {
		conv.ID = m.nextID
		m.nextID++
	}
	m.conversations[conv.ID] = conv
	return nil
}

func (m *MockConversationRepository) FindByID(id uint) (*models.Conversation, error) {
	if c, ok := m.conversations[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockConversationRepository) FindDirect(userID1, userID2 uint) (*models.Conversation, error) {
	for id, c := range m.conversations {
		if c.IsGroup {
			continue
		}
		_, ok1 := m.participants[participantKey{id, userID1}]
		_, ok2 := m.participants[participantKey{id, userID2}]
		if ok1 && ok2 {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockConversationRepository) AddParticipant(convID, userID uint) error {
	key := participantKey{convID, userID}
	if _, ok := m.participants[key]; !ok {
		m.participants[key] = nil
	}
	return nil
}

func (m *MockConversationRepository) RemoveParticipant(convID, userID uint) error {
	delete(m.participants, participantKey{convID, userID})
	return nil
}

func (m *MockConversationRepository) IsParticipant(convID, userID uint) (bool, error) {
	_, ok := m.participants[participantKey{convID, userID}]
	return ok, nil
}

func (m *MockConversationRepository) GetParticipantIDs(convID uint) ([]uint, error) {
	var ids []uint
	for k := range m.participants {
		if k.convID == convID {
			ids = append(ids, k.userID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *MockConversationRepository) GetLastReadAt(convID, userID uint) (*time.Time, error) {
	key := participantKey{convID, userID}
	if t, ok := m.participants[key]; ok {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockConversationRepository) MarkReadMonotonic(convID, userID uint, readAt time.Time) error {
	key := participantKey{convID, userID}
	if _, ok := m.participants[key]; !ok {
		return nil
	}
	current := m.participants[key]
	if current == nil || readAt.After(*current) {
		m.participants[key] = &readAt
	}
	return nil
}

func (m *MockConversationRepository) ListForUser(userID uint, limit int) ([]repository.ConversationRow, error) {
	return m.rows, nil
}

type MockChatMessageRepository struct {
	messages map[uint]*models.ChatMessage
	nextID   uint
}

func NewMockChatMessageRepository() *MockChatMessageRepository {
	return &MockChatMessageRepository{messages: make(map[uint]*models.ChatMessage), nextID: 1}
}

func (m *MockChatMessageRepository) Create(message *models.ChatMessage) error {
	if message.ID == 0 {
		message.ID = m.nextID
		m.nextID++
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	m.messages[message.ID] = message
	return nil
}

func (m *MockChatMessageRepository) FindByID(id uint) (*models.ChatMessage, error) {
	if msg, ok := m.messages[id]; ok {
		return msg, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockChatMessageRepository) FindByClientID(clientID string, senderID uint) (*models.ChatMessage, error) {
	for _, msg := range m.messages {
		if msg.ClientID == clientID && msg.SenderID == senderID {
			return msg, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockChatMessageRepository) ListByConversation(convID uint, cursor uint, limit int) ([]models.ChatMessage, error) {
	var result []models.ChatMessage
	for _, msg := range m.messages {
		if msg.ConversationID != convID {
			continue
		}
		if cursor > 0 && msg.ID >= cursor {
			continue
		}
		result = append(result, *msg)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	if limit > 0 && len(result) > limit {
		result = result[len(result)-limit:]
	}
	return result, nil
}

func (m *MockChatMessageRepository) CountUnread(convID, userID uint, since *time.Time) (int64, error) {
	var count int64
	for _, msg := range m.messages {
		if msg.ConversationID != convID || msg.SenderID == userID {
			continue
		}
		if since != nil && !msg.CreatedAt.After(*since) {
			continue
		}
		count++
	}
	return count, nil
}

type MockRefreshTokenRepository struct {
	tokens map[string]*models.RefreshToken
	nextID uint
}

func NewMockRefreshTokenRepository() *MockRefreshTokenRepository {
	return &MockRefreshTokenRepository{tokens: make(map[string]*models.RefreshToken), nextID: 1}
}

func (m *MockRefreshTokenRepository) Create(token *models.RefreshToken) error {
	if token.ID == 0 {
		token.ID = m.nextID
		m.nextID++
	}
	m.tokens[token.TokenHash] = token
	return nil
}

func (m *MockRefreshTokenRepository) FindValidByHash(tokenHash string) (*models.RefreshToken, error) {
	t, ok := m.tokens[tokenHash]
	if !ok || t.IsRevoked() || time.Now().After(t.ExpiresAt) {
		return nil, gorm.ErrRecordNotFound
	}
	return t, nil
}

func (m *MockRefreshTokenRepository) RevokeByHash(tokenHash string) error {
	if t, ok := m.tokens[tokenHash]; ok {
		now := time.Now()
		t.RevokedAt = &now
	}
	return nil
}

// mockPusher records pushed frames per user.
type mockPusher struct {
	online map[uint]bool
	frames map[uint][]interface{}
}

func newMockPusher() *mockPusher {
	return &mockPusher{online: make(map[uint]bool), frames: make(map[uint][]interface{})}
}

func (p *mockPusher) Push(userID uint, data interface{}) error {
	p.frames[userID] = append(p.frames[userID], data)
	return nil
}

func (p *mockPusher) IsOnline(userID uint) bool {
	return p.online[userID]
}
