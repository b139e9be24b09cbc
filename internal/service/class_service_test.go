package service

import (
	"testing"

	"github.com/classboardhq/classboard-backend/internal/models"
	"github.com/classboardhq/classboard-backend/internal/realtime"
	"github.com/classboardhq/classboard-backend/internal/validation"
)

func newClassFixture() (*ClassService, *MockClassRepository, *MockUserRepository, *MockSchoolRepository, *realtime.Feed) {
	classRepo := NewMockClassRepository()
	topicRepo := NewMockTopicRepository()
	userRepo := NewMockUserRepository()
	schoolRepo := NewMockSchoolRepository()
	feed := realtime.NewFeed()
	svc := NewClassService(classRepo, topicRepo, userRepo, schoolRepo, feed, nil)
	return svc, classRepo, userRepo, schoolRepo, feed
}

func seedTeacherAndSchool(userRepo *MockUserRepository, schoolRepo *MockSchoolRepository) {
	schoolID := uint(1)
	schoolRepo.Create(&models.School{ID: schoolID, Name: "Springfield High"})
	userRepo.Create(&models.User{ID: 1, Username: "teacher", Role: models.UserRoleTeacher, SchoolID: &schoolID})
	userRepo.Create(&models.User{ID: 2, Username: "student", Role: models.UserRoleStudent, SchoolID: &schoolID})
}

func TestCreateClass(t *testing.T) {
	svc, classRepo, userRepo, schoolRepo, _ := newClassFixture()
	seedTeacherAndSchool(userRepo, schoolRepo)

	tests := []struct {
		name      string
		creatorID uint
		input     CreateClassInput
		shouldErr bool
	}{
		{"Teacher creates class", 1, CreateClassInput{Name: "Algebra", Subject: "Math"}, false},
		{"Student cannot create", 2, CreateClassInput{Name: "Algebra"}, true},
		{"Missing name", 1, CreateClassInput{Name: "  "}, true},
		{"Unknown school", 1, CreateClassInput{Name: "Algebra", SchoolID: 99}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			class, err := svc.CreateClass(tt.creatorID, tt.input)
			if (err != nil) != tt.shouldErr {
				t.Errorf("CreateClass error = %v, wantErr %v", err, tt.shouldErr)
			}
			if tt.shouldErr {
				return
			}
			if !validation.ValidateJoinCode(class.JoinCode) {
				t.Errorf("join code %q is not valid", class.JoinCode)
			}
			role, err := classRepo.GetMemberRole(class.ID, tt.creatorID)
			if err != nil || role != models.ClassRoleTeacher {
				t.Errorf("creator role = %q, want teacher", role)
			}
		})
	}
}

func TestJoinByCode(t *testing.T) {
	svc, _, userRepo, schoolRepo, _ := newClassFixture()
	seedTeacherAndSchool(userRepo, schoolRepo)

	class, err := svc.CreateClass(1, CreateClassInput{Name: "Algebra"})
	if err != nil {
		t.Fatalf("CreateClass error = %v", err)
	}

	joined, err := svc.JoinByCode(class.JoinCode, 2)
	if err != nil {
		t.Fatalf("JoinByCode error = %v", err)
	}
	if joined.ID != class.ID {
		t.Errorf("joined class %d, want %d", joined.ID, class.ID)
	}
	role, _ := svc.classRepo.GetMemberRole(class.ID, 2)
	if role != models.ClassRoleStudent {
		t.Errorf("joiner role = %q, want student", role)
	}

	if _, err := svc.JoinByCode(class.JoinCode, 2); err == nil {
		t.Errorf("expected error on duplicate join")
	}
	if _, err := svc.JoinByCode("nope!", 2); err == nil {
		t.Errorf("expected error for malformed code")
	}

	// Archived classes do not accept joins.
	if _, err := svc.ArchiveClass(class.ID, 1, true); err != nil {
		t.Fatalf("ArchiveClass error = %v", err)
	}
	userRepo.Create(&models.User{ID: 3, Username: "late", Role: models.UserRoleStudent})
	if _, err := svc.JoinByCode(class.JoinCode, 3); err == nil {
		t.Errorf("expected error joining archived class")
	}
}

func TestRegenerateJoinCode(t *testing.T) {
	svc, _, userRepo, schoolRepo, _ := newClassFixture()
	seedTeacherAndSchool(userRepo, schoolRepo)

	class, _ := svc.CreateClass(1, CreateClassInput{Name: "Algebra"})
	oldCode := class.JoinCode

	updated, err := svc.RegenerateJoinCode(class.ID, 1)
	if err != nil {
		t.Fatalf("RegenerateJoinCode error = %v", err)
	}
	if updated.JoinCode == oldCode {
		t.Errorf("join code did not change")
	}
	if _, err := svc.JoinByCode(oldCode, 2); err == nil {
		t.Errorf("old join code still accepted")
	}

	if _, err := svc.RegenerateJoinCode(class.ID, 2); err == nil {
		t.Errorf("non-teacher regenerated the code")
	}
}

func TestMembershipEventsPublished(t *testing.T) {
	svc, _, userRepo, schoolRepo, feed := newClassFixture()
	seedTeacherAndSchool(userRepo, schoolRepo)

	sub := feed.Subscribe()
	defer sub.Close()

	class, err := svc.CreateClass(1, CreateClassInput{Name: "Algebra"})
	if err != nil {
		t.Fatalf("CreateClass error = %v", err)
	}
	if _, err := svc.JoinByCode(class.JoinCode, 2); err != nil {
		t.Fatalf("JoinByCode error = %v", err)
	}

	// Creation and join each publish one membership event.
	for _, wantUser := range []uint{1, 2} {
		select {
		case ev := <-sub.C:
			if ev.Kind != realtime.EventMembershipChanged {
				t.Errorf("event kind = %q, want membership change", ev.Kind)
			}
			if ev.UserID != wantUser {
				t.Errorf("event user = %d, want %d", ev.UserID, wantUser)
			}
			if ev.ClassID != class.ID {
				t.Errorf("event class = %d, want %d", ev.ClassID, class.ID)
			}
		default:
			t.Fatalf("missing membership event for user %d", wantUser)
		}
	}
}

func TestRemoveMemberPermissions(t *testing.T) {
	svc, classRepo, userRepo, schoolRepo, _ := newClassFixture()
	seedTeacherAndSchool(userRepo, schoolRepo)
	userRepo.Create(&models.User{ID: 3, Username: "other", Role: models.UserRoleStudent})

	class, _ := svc.CreateClass(1, CreateClassInput{Name: "Algebra"})
	svc.JoinByCode(class.JoinCode, 2)
	svc.JoinByCode(class.JoinCode, 3)

	// A student cannot remove another student.
	if err := svc.RemoveMember(class.ID, 2, 3); err == nil {
		t.Errorf("student removed another member")
	}

	// A student can leave on their own.
	if err := svc.LeaveClass(class.ID, 3); err != nil {
		t.Errorf("LeaveClass error = %v", err)
	}
	if ok, _ := classRepo.IsMember(class.ID, 3); ok {
		t.Errorf("member still present after leaving")
	}

	// The teacher can remove anyone.
	if err := svc.RemoveMember(class.ID, 1, 2); err != nil {
		t.Errorf("RemoveMember error = %v", err)
	}
	if ok, _ := classRepo.IsMember(class.ID, 2); ok {
		t.Errorf("member still present after removal")
	}
}

func TestTopics(t *testing.T) {
	svc, _, userRepo, schoolRepo, _ := newClassFixture()
	seedTeacherAndSchool(userRepo, schoolRepo)

	class, _ := svc.CreateClass(1, CreateClassInput{Name: "Algebra"})
	svc.JoinByCode(class.JoinCode, 2)

	topic, err := svc.CreateTopic(class.ID, 1, "Unit 1", 0)
	if err != nil {
		t.Fatalf("CreateTopic error = %v", err)
	}
	if _, err := svc.CreateTopic(class.ID, 2, "Unit 2", 1); err == nil {
		t.Errorf("student created a topic")
	}

	topics, err := svc.ListTopics(class.ID, 2)
	if err != nil {
		t.Fatalf("ListTopics error = %v", err)
	}
	if len(topics) != 1 || topics[0].ID != topic.ID {
		t.Errorf("ListTopics = %v, want the created topic", topics)
	}

	if _, err := svc.ListTopics(class.ID, 99); err == nil {
		t.Errorf("non-member listed topics")
	}

	if err := svc.DeleteTopic(topic.ID, 2); err == nil {
		t.Errorf("student deleted a topic")
	}
	if err := svc.DeleteTopic(topic.ID, 1); err != nil {
		t.Errorf("DeleteTopic error = %v", err)
	}
}
