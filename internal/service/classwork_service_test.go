package service

import (
	"testing"
	"time"

	"github.com/classboardhq/classboard-backend/internal/models"
	"github.com/classboardhq/classboard-backend/internal/realtime"
)

func newContentFixture() (*ContentService, *MockClassRepository, *MockReadMarkerRepository, *realtime.Feed) {
	classworkRepo := NewMockClassworkRepository()
	announcementRepo := NewMockAnnouncementRepository()
	markerRepo := NewMockReadMarkerRepository()
	classRepo := NewMockClassRepository()
	topicRepo := NewMockTopicRepository()
	feed := realtime.NewFeed()
	svc := NewContentService(classworkRepo, announcementRepo, markerRepo, classRepo, topicRepo, feed)
	return svc, classRepo, markerRepo, feed
}

func seedClassroom(classRepo *MockClassRepository) {
	classRepo.Create(&models.Class{ID: 1, Name: "Algebra"})
	classRepo.AddMember(1, 1, models.ClassRoleTeacher)
	classRepo.AddMember(1, 2, models.ClassRoleStudent)
}

func TestCreateClasswork(t *testing.T) {
	svc, classRepo, _, _ := newContentFixture()
	seedClassroom(classRepo)

	due := time.Now().Add(48 * time.Hour)
	points := 100
	badPoints := -5

	tests := []struct {
		name      string
		authorID  uint
		input     CreateClassworkInput
		shouldErr bool
	}{
		{"Teacher posts lesson", 1, CreateClassworkInput{ClassID: 1, Kind: models.ClassworkLesson, Title: "Intro"}, false},
		{"Teacher posts assignment", 1, CreateClassworkInput{ClassID: 1, Kind: models.ClassworkAssignment, Title: "Homework 1", DueAt: &due, Points: &points}, false},
		{"Student cannot post", 2, CreateClassworkInput{ClassID: 1, Kind: models.ClassworkLesson, Title: "Nope"}, true},
		{"Missing title", 1, CreateClassworkInput{ClassID: 1, Kind: models.ClassworkLesson, Title: " "}, true},
		{"Invalid kind", 1, CreateClassworkInput{ClassID: 1, Kind: "quiz", Title: "Quiz"}, true},
		{"Lesson with due date", 1, CreateClassworkInput{ClassID: 1, Kind: models.ClassworkLesson, Title: "Intro", DueAt: &due}, true},
		{"Negative points", 1, CreateClassworkInput{ClassID: 1, Kind: models.ClassworkAssignment, Title: "HW", Points: &badPoints}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			work, err := svc.CreateClasswork(tt.authorID, tt.input)
			if (err != nil) != tt.shouldErr {
				t.Errorf("CreateClasswork error = %v, wantErr %v", err, tt.shouldErr)
			}
			if !tt.shouldErr && work.AuthorID != tt.authorID {
				t.Errorf("author = %d, want %d", work.AuthorID, tt.authorID)
			}
		})
	}
}

func TestCreateClassworkPublishesEvent(t *testing.T) {
	svc, classRepo, markerRepo, feed := newContentFixture()
	seedClassroom(classRepo)

	sub := feed.Subscribe()
	defer sub.Close()

	work, err := svc.CreateClasswork(1, CreateClassworkInput{ClassID: 1, Kind: models.ClassworkLesson, Title: "Intro"})
	if err != nil {
		t.Fatalf("CreateClasswork error = %v", err)
	}

	select {
	case ev := <-sub.C:
		if ev.Kind != realtime.EventClassworkCreated {
			t.Errorf("event kind = %q", ev.Kind)
		}
		if ev.ItemID != work.ID || ev.ClassID != 1 || ev.ActorID != 1 {
			t.Errorf("event = %+v, want item %d in class 1 by user 1", ev, work.ID)
		}
		if ev.Title != "Intro" {
			t.Errorf("event title = %q, want %q", ev.Title, "Intro")
		}
	default:
		t.Fatalf("no event published")
	}

	// The author starts with their own post already read.
	ids, _ := markerRepo.ListItemIDs(1, models.KindClasswork)
	if len(ids) != 1 || ids[0] != work.ID {
		t.Errorf("author read markers = %v, want [%d]", ids, work.ID)
	}
}

func TestUpdateClasswork(t *testing.T) {
	svc, classRepo, _, feed := newContentFixture()
	seedClassroom(classRepo)

	work, _ := svc.CreateClasswork(1, CreateClassworkInput{ClassID: 1, Kind: models.ClassworkLesson, Title: "Intro"})

	sub := feed.Subscribe()
	defer sub.Close()

	title := "Intro (revised)"
	updated, err := svc.UpdateClasswork(work.ID, 1, UpdateClassworkInput{Title: &title})
	if err != nil {
		t.Fatalf("UpdateClasswork error = %v", err)
	}
	if updated.Title != title {
		t.Errorf("title = %q, want %q", updated.Title, title)
	}
	if updated.ID != work.ID {
		t.Errorf("edit changed identity: %d -> %d", work.ID, updated.ID)
	}

	// Edits do not re-notify.
	select {
	case ev := <-sub.C:
		t.Errorf("unexpected event on edit: %+v", ev)
	default:
	}

	empty := "  "
	if _, err := svc.UpdateClasswork(work.ID, 1, UpdateClassworkInput{Title: &empty}); err == nil {
		t.Errorf("accepted empty title")
	}
	if _, err := svc.UpdateClasswork(work.ID, 2, UpdateClassworkInput{Title: &title}); err == nil {
		t.Errorf("student edited classwork")
	}
}

func TestDeleteClassworkClearsMarkers(t *testing.T) {
	svc, classRepo, markerRepo, _ := newContentFixture()
	seedClassroom(classRepo)

	work, _ := svc.CreateClasswork(1, CreateClassworkInput{ClassID: 1, Kind: models.ClassworkLesson, Title: "Intro"})
	markerRepo.Upsert(2, work.ID, models.KindClasswork)

	if err := svc.DeleteClasswork(work.ID, 2); err == nil {
		t.Errorf("student deleted classwork")
	}
	if err := svc.DeleteClasswork(work.ID, 1); err != nil {
		t.Fatalf("DeleteClasswork error = %v", err)
	}

	for _, userID := range []uint{1, 2} {
		ids, _ := markerRepo.ListItemIDs(userID, models.KindClasswork)
		if len(ids) != 0 {
			t.Errorf("markers for user %d = %v, want none", userID, ids)
		}
	}
}

func TestAnnouncements(t *testing.T) {
	svc, classRepo, _, feed := newContentFixture()
	seedClassroom(classRepo)

	sub := feed.Subscribe()
	defer sub.Close()

	a, err := svc.CreateAnnouncement(1, CreateAnnouncementInput{ClassID: 1, Body: "School closed Friday"})
	if err != nil {
		t.Fatalf("CreateAnnouncement error = %v", err)
	}

	select {
	case ev := <-sub.C:
		if ev.Kind != realtime.EventAnnouncementCreated {
			t.Errorf("event kind = %q", ev.Kind)
		}
		// Untitled announcements use the body as the notification title.
		if ev.Title != "School closed Friday" {
			t.Errorf("event title = %q", ev.Title)
		}
	default:
		t.Fatalf("no event published")
	}

	if _, err := svc.CreateAnnouncement(2, CreateAnnouncementInput{ClassID: 1, Body: "hi"}); err == nil {
		t.Errorf("student posted announcement")
	}
	if _, err := svc.CreateAnnouncement(1, CreateAnnouncementInput{ClassID: 1, Body: "  "}); err == nil {
		t.Errorf("accepted empty body")
	}

	list, err := svc.ListAnnouncements(1, 2)
	if err != nil {
		t.Fatalf("ListAnnouncements error = %v", err)
	}
	if len(list) != 1 || list[0].ID != a.ID {
		t.Errorf("ListAnnouncements = %v, want the created announcement", list)
	}
	if _, err := svc.ListAnnouncements(1, 99); err == nil {
		t.Errorf("non-member listed announcements")
	}
}

func TestClassworkTopicValidation(t *testing.T) {
	svc, classRepo, _, _ := newContentFixture()
	seedClassroom(classRepo)

	classRepo.Create(&models.Class{ID: 2, Name: "History"})
	classRepo.AddMember(2, 1, models.ClassRoleTeacher)
	svc.topicRepo.Create(&models.Topic{ID: 1, ClassID: 2, Name: "Unit 1"})

	// A topic from another class cannot be referenced.
	topicID := uint(1)
	if _, err := svc.CreateClasswork(1, CreateClassworkInput{ClassID: 1, Kind: models.ClassworkLesson, Title: "Intro", TopicID: &topicID}); err == nil {
		t.Errorf("accepted topic from a different class")
	}
	if _, err := svc.CreateClasswork(1, CreateClassworkInput{ClassID: 2, Kind: models.ClassworkLesson, Title: "Intro", TopicID: &topicID}); err != nil {
		t.Errorf("rejected topic from the same class: %v", err)
	}
}
