package service

import (
	"log"
	"sync"
	"time"

	"github.com/classboardhq/classboard-backend/internal/models"
	"github.com/classboardhq/classboard-backend/internal/realtime"
	"github.com/classboardhq/classboard-backend/internal/repository"
)

// UnreadSnapshotCache is an optional second-level cache for computed
// snapshots, typically Redis-backed. A nil cache disables it.
type UnreadSnapshotCache interface {
	Get(userID uint) (*models.UnreadSnapshot, bool)
	Set(userID uint, snap *models.UnreadSnapshot)
	Invalidate(userID uint)
}

// UnreadService maintains per-user unread counters for class content.
// Each user carries a monotonically increasing generation counter;
// every invalidating event bumps it. A recompute captures the
// generation when it starts and its result is applied only if the
// generation is unchanged when it finishes, so a recompute that raced
// with newer writes is discarded rather than overwriting fresher state.
type UnreadService struct {
	classRepo        repository.ClassRepositoryInterface
	classworkRepo    repository.ClassworkRepositoryInterface
	announcementRepo repository.AnnouncementRepositoryInterface
	readMarkerRepo   repository.ReadMarkerRepositoryInterface
	cache            UnreadSnapshotCache
	pusher           realtime.Pusher

	mu          sync.Mutex
	generations map[uint]uint64
	snapshots   map[uint]*models.UnreadSnapshot
}

func NewUnreadService(
	classRepo repository.ClassRepositoryInterface,
	classworkRepo repository.ClassworkRepositoryInterface,
	announcementRepo repository.AnnouncementRepositoryInterface,
	readMarkerRepo repository.ReadMarkerRepositoryInterface,
	cache UnreadSnapshotCache,
	pusher realtime.Pusher,
) *UnreadService {
	return &UnreadService{
		classRepo:        classRepo,
		classworkRepo:    classworkRepo,
		announcementRepo: announcementRepo,
		readMarkerRepo:   readMarkerRepo,
		cache:            cache,
		pusher:           pusher,
		generations:      make(map[uint]uint64),
		snapshots:        make(map[uint]*models.UnreadSnapshot),
	}
}

// Get returns the current snapshot for a user, recomputing if the
// memoized one is stale. On a compute error the last good snapshot is
// returned rather than zeroes, so a transient database failure never
// flashes counters to zero.
func (s *UnreadService) Get(userID uint) (*models.UnreadSnapshot, error) {
	s.mu.Lock()
	gen := s.generations[userID]
	if snap, ok := s.snapshots[userID]; ok && snap.Version == gen {
		s.mu.Unlock()
		return snap, nil
	}
	s.mu.Unlock()

	if s.cache != nil {
		if snap, ok := s.cache.Get(userID); ok && snap.Version == gen {
			s.mu.Lock()
			s.snapshots[userID] = snap
			s.mu.Unlock()
			return snap, nil
		}
	}

	snap, err := s.recompute(userID, gen)
	if err != nil {
		log.Printf("Unread recompute failed for user %d: %v", userID, err)
		s.mu.Lock()
		stale := s.snapshots[userID]
		s.mu.Unlock()
		if stale != nil {
			return stale, nil
		}
		return nil, err
	}
	return snap, nil
}

// MarkItemRead records a read marker and returns the refreshed
// snapshot. Marking an already-read item is a no-op for the counts.
func (s *UnreadService) MarkItemRead(userID, itemID uint, kind models.ContentKind) (*models.UnreadSnapshot, error) {
	if err := s.readMarkerRepo.Upsert(userID, itemID, kind); err != nil {
		return nil, err
	}
	s.Invalidate(userID)
	return s.Get(userID)
}

// MarkClassRead marks every item of one kind in a class as read.
func (s *UnreadService) MarkClassRead(userID, classID uint, kind models.ContentKind) (*models.UnreadSnapshot, error) {
	refs, err := s.refsFor(kind, []uint{classID})
	if err != nil {
		return nil, err
	}
	read, err := s.readSet(userID, kind)
	if err != nil {
		return nil, err
	}
	for _, ref := range refs {
		if _, ok := read[ref.ID]; ok {
			continue
		}
		if err := s.readMarkerRepo.Upsert(userID, ref.ID, kind); err != nil {
			return nil, err
		}
	}
	s.Invalidate(userID)
	return s.Get(userID)
}

// Invalidate bumps the user's generation so in-flight recomputes that
// started before this call cannot apply their result.
func (s *UnreadService) Invalidate(userID uint) {
	s.mu.Lock()
	s.generations[userID]++
	s.mu.Unlock()
	if s.cache != nil {
		s.cache.Invalidate(userID)
	}
}

// Run consumes feed events and keeps counters current: new content
// invalidates every member of the class, membership changes invalidate
// the affected user. Fresh counts are pushed to online users. Returns
// when the subscription is closed.
func (s *UnreadService) Run(sub *realtime.Subscription) {
	for ev := range sub.C {
		switch ev.Kind {
		case realtime.EventClassworkCreated, realtime.EventAnnouncementCreated:
			s.invalidateClass(ev.ClassID, ev.ActorID)
		case realtime.EventMembershipChanged:
			s.Invalidate(ev.UserID)
			s.pushCounts(ev.UserID)
		}
	}
}

func (s *UnreadService) invalidateClass(classID, actorID uint) {
	members, err := s.classRepo.GetMembers(classID)
	if err != nil {
		log.Printf("Unread invalidation failed for class %d: %v", classID, err)
		return
	}
	for _, m := range members {
		if m.UserID == actorID {
			continue
		}
		s.Invalidate(m.UserID)
		s.pushCounts(m.UserID)
	}
}

func (s *UnreadService) pushCounts(userID uint) {
	if s.pusher == nil || !s.pusher.IsOnline(userID) {
		return
	}
	snap, err := s.Get(userID)
	if err != nil {
		return
	}
	_ = s.pusher.Push(userID, map[string]interface{}{
		"type":     "unread_counts",
		"snapshot": snap,
	})
}

func (s *UnreadService) recompute(userID uint, gen uint64) (*models.UnreadSnapshot, error) {
	classIDs, err := s.classRepo.GetUserClassIDs(userID)
	if err != nil {
		return nil, err
	}

	snap := &models.UnreadSnapshot{
		TotalByKind: map[models.ContentKind]int{
			models.KindClasswork:    0,
			models.KindAnnouncement: 0,
		},
		PerClass:   make(map[uint]map[models.ContentKind]int, len(classIDs)),
		Version:    gen,
		ComputedAt: time.Now(),
	}
	for _, id := range classIDs {
		snap.PerClass[id] = map[models.ContentKind]int{
			models.KindClasswork:    0,
			models.KindAnnouncement: 0,
		}
	}

	if len(classIDs) > 0 {
		for _, kind := range []models.ContentKind{models.KindClasswork, models.KindAnnouncement} {
			refs, err := s.refsFor(kind, classIDs)
			if err != nil {
				return nil, err
			}
			read, err := s.readSet(userID, kind)
			if err != nil {
				return nil, err
			}
			for _, ref := range refs {
				if _, ok := read[ref.ID]; ok {
					continue
				}
				snap.TotalByKind[kind]++
				snap.PerClass[ref.ClassID][kind]++
			}
		}
	}

	// Apply only if no newer invalidation arrived while we were reading.
	s.mu.Lock()
	if s.generations[userID] != gen {
		existing := s.snapshots[userID]
		s.mu.Unlock()
		if existing != nil {
			return existing, nil
		}
		return snap, nil
	}
	s.snapshots[userID] = snap
	s.mu.Unlock()

	if s.cache != nil {
		s.cache.Set(userID, snap)
	}
	return snap, nil
}

func (s *UnreadService) refsFor(kind models.ContentKind, classIDs []uint) ([]repository.ContentRef, error) {
	if kind == models.KindAnnouncement {
		return s.announcementRepo.ListRefsByClasses(classIDs)
	}
	return s.classworkRepo.ListRefsByClasses(classIDs)
}

func (s *UnreadService) readSet(userID uint, kind models.ContentKind) (map[uint]struct{}, error) {
	ids, err := s.readMarkerRepo.ListItemIDs(userID, kind)
	if err != nil {
		return nil, err
	}
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}
