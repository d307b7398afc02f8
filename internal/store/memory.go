package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// MemoryStore keeps every collection in process memory. Each exported method
// runs under a single lock, so a cascade is observed either fully or not at all.
type MemoryStore struct {
	mu          sync.RWMutex
	users       map[int64]User
	guides      map[int64]Guide
	days        map[int64]GuideDay
	activities  map[int64]Activity
	invitations map[Invitation]struct{}

	userIDs     idCounter
	guideIDs    idCounter
	dayIDs      idCounter
	activityIDs idCounter
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[int64]User),
		guides:      make(map[int64]Guide),
		days:        make(map[int64]GuideDay),
		activities:  make(map[int64]Activity),
		invitations: make(map[Invitation]struct{}),
	}
}

type idCounter struct {
	last atomic.Int64
}

func (c *idCounter) next() int64 {
	return c.last.Add(1)
}

// observe moves the counter past an explicitly assigned id.
func (c *idCounter) observe(id int64) {
	for {
		current := c.last.Load()
		if id <= current || c.last.CompareAndSwap(current, id) {
			return
		}
	}
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// Users

func (s *MemoryStore) CountUsers(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

func (s *MemoryStore) ListUsers(context.Context) ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (s *MemoryStore) GetUser(_ context.Context, id int64) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if user, ok := s.userByEmailLocked(email); ok {
		return user, nil
	}
	return User{}, ErrNotFound
}

func (s *MemoryStore) userByEmailLocked(email string) (User, bool) {
	email = strings.TrimSpace(email)
	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			return user, true
		}
	}
	return User{}, false
}

func (s *MemoryStore) CreateUser(_ context.Context, user User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.userByEmailLocked(user.Email); exists {
		return User{}, fmt.Errorf("create user %q: %w", user.Email, ErrConflict)
	}
	if user.ID == 0 {
		user.ID = s.userIDs.next()
	} else {
		if _, exists := s.users[user.ID]; exists {
			return User{}, fmt.Errorf("create user %d: %w", user.ID, ErrConflict)
		}
		s.userIDs.observe(user.ID)
	}
	s.users[user.ID] = user
	return user, nil
}

// DeleteUser removes the user and every invitation that references them.
func (s *MemoryStore) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return ErrNotFound
	}
	for invitation := range s.invitations {
		if invitation.UserID == id {
			delete(s.invitations, invitation)
		}
	}
	delete(s.users, id)
	return nil
}

// Guides

func (s *MemoryStore) ListGuides(context.Context) ([]Guide, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	guides := make([]Guide, 0, len(s.guides))
	for _, guide := range s.guides {
		guides = append(guides, guide)
	}
	sort.Slice(guides, func(i, j int) bool { return guides[i].ID < guides[j].ID })
	return guides, nil
}

func (s *MemoryStore) GetGuide(_ context.Context, id int64) (Guide, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	guide, ok := s.guides[id]
	if !ok {
		return Guide{}, ErrNotFound
	}
	return guide, nil
}

// CreateGuide inserts the guide together with its days. Day ids are allocated
// unless set, and each day's GuideID is overwritten with the new guide id.
func (s *MemoryStore) CreateGuide(_ context.Context, guide Guide, days []GuideDay) (Guide, []GuideDay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if guide.ID == 0 {
		guide.ID = s.guideIDs.next()
	} else {
		if _, exists := s.guides[guide.ID]; exists {
			return Guide{}, nil, fmt.Errorf("create guide %d: %w", guide.ID, ErrConflict)
		}
		s.guideIDs.observe(guide.ID)
	}
	for _, day := range days {
		if day.ID != 0 {
			if _, exists := s.days[day.ID]; exists {
				return Guide{}, nil, fmt.Errorf("create day %d: %w", day.ID, ErrConflict)
			}
		}
	}

	created := make([]GuideDay, 0, len(days))
	for _, day := range days {
		day.GuideID = guide.ID
		created = append(created, s.insertDayLocked(day))
	}
	s.guides[guide.ID] = guide
	return guide, created, nil
}

// UpdateGuide rewrites the guide row, inserts the added days and drops every
// day numbered above NumberOfDays with its activities, all under one lock. It
// returns the ids of the dropped activities.
func (s *MemoryStore) UpdateGuide(_ context.Context, guide Guide, added []GuideDay) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.guides[guide.ID]; !ok {
		return nil, ErrNotFound
	}
	for _, day := range added {
		if day.ID != 0 {
			if _, exists := s.days[day.ID]; exists {
				return nil, fmt.Errorf("create day %d: %w", day.ID, ErrConflict)
			}
		}
	}

	var removed []int64
	for dayID, day := range s.days {
		if day.GuideID != guide.ID || day.DayNumber <= guide.NumberOfDays {
			continue
		}
		for activityID, activity := range s.activities {
			if activity.GuideDayID == dayID {
				removed = append(removed, activityID)
			}
		}
		s.deleteDayLocked(dayID)
	}
	for _, day := range added {
		day.GuideID = guide.ID
		s.insertDayLocked(day)
	}
	s.guides[guide.ID] = guide
	sort.Slice(removed, func(i, j int) bool { return removed[i] < removed[j] })
	return removed, nil
}

// DeleteGuide removes the guide, its days, their activities, and the guide's
// invitations.
func (s *MemoryStore) DeleteGuide(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.guides[id]; !ok {
		return ErrNotFound
	}
	for dayID, day := range s.days {
		if day.GuideID == id {
			s.deleteDayLocked(dayID)
		}
	}
	for invitation := range s.invitations {
		if invitation.GuideID == id {
			delete(s.invitations, invitation)
		}
	}
	delete(s.guides, id)
	return nil
}

// Days

func (s *MemoryStore) ListDays(_ context.Context, guideID int64) ([]GuideDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	days := make([]GuideDay, 0)
	for _, day := range s.days {
		if day.GuideID == guideID {
			days = append(days, day)
		}
	}
	sort.Slice(days, func(i, j int) bool {
		if days[i].DayNumber != days[j].DayNumber {
			return days[i].DayNumber < days[j].DayNumber
		}
		return days[i].ID < days[j].ID
	})
	return days, nil
}

func (s *MemoryStore) GetDay(_ context.Context, id int64) (GuideDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	day, ok := s.days[id]
	if !ok {
		return GuideDay{}, ErrNotFound
	}
	return day, nil
}

func (s *MemoryStore) insertDayLocked(day GuideDay) GuideDay {
	if day.ID == 0 {
		day.ID = s.dayIDs.next()
	} else {
		s.dayIDs.observe(day.ID)
	}
	s.days[day.ID] = day
	return day
}

func (s *MemoryStore) UpdateDay(_ context.Context, day GuideDay) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.days[day.ID]
	if !ok {
		return ErrNotFound
	}
	day.GuideID = current.GuideID
	day.DayNumber = current.DayNumber
	s.days[day.ID] = day
	return nil
}

func (s *MemoryStore) deleteDayLocked(dayID int64) {
	for activityID, activity := range s.activities {
		if activity.GuideDayID == dayID {
			delete(s.activities, activityID)
		}
	}
	delete(s.days, dayID)
}

// Activities

func (s *MemoryStore) ListActivities(_ context.Context, dayID int64) ([]Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	activities := make([]Activity, 0)
	for _, activity := range s.activities {
		if activity.GuideDayID == dayID {
			activities = append(activities, activity)
		}
	}
	SortActivities(activities)
	return activities, nil
}

func (s *MemoryStore) ListGuideActivities(_ context.Context, guideID int64) ([]Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	activities := make([]Activity, 0)
	for _, activity := range s.activities {
		day, ok := s.days[activity.GuideDayID]
		if ok && day.GuideID == guideID {
			activities = append(activities, activity)
		}
	}
	SortActivities(activities)
	return activities, nil
}

func (s *MemoryStore) GetActivity(_ context.Context, id int64) (Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	activity, ok := s.activities[id]
	if !ok {
		return Activity{}, ErrNotFound
	}
	return activity, nil
}

func (s *MemoryStore) CreateActivity(_ context.Context, activity Activity) (Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.days[activity.GuideDayID]; !ok {
		return Activity{}, ErrNotFound
	}
	if activity.ID == 0 {
		activity.ID = s.activityIDs.next()
	} else {
		if _, exists := s.activities[activity.ID]; exists {
			return Activity{}, fmt.Errorf("create activity %d: %w", activity.ID, ErrConflict)
		}
		s.activityIDs.observe(activity.ID)
	}
	s.activities[activity.ID] = activity
	return activity, nil
}

func (s *MemoryStore) UpdateActivity(_ context.Context, activity Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.activities[activity.ID]; !ok {
		return ErrNotFound
	}
	if _, ok := s.days[activity.GuideDayID]; !ok {
		return ErrNotFound
	}
	s.activities[activity.ID] = activity
	return nil
}

func (s *MemoryStore) DeleteActivity(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.activities[id]; !ok {
		return ErrNotFound
	}
	delete(s.activities, id)
	return nil
}

// SetVisitOrders applies all orders or none.
func (s *MemoryStore) SetVisitOrders(_ context.Context, orders []VisitOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, order := range orders {
		if _, ok := s.activities[order.ActivityID]; !ok {
			return fmt.Errorf("set visit order for activity %d: %w", order.ActivityID, ErrNotFound)
		}
	}
	for _, order := range orders {
		activity := s.activities[order.ActivityID]
		activity.VisitOrder = order.VisitOrder
		s.activities[order.ActivityID] = activity
	}
	return nil
}

// Invitations

func (s *MemoryStore) ListInvitations(_ context.Context, guideID int64) ([]InvitedUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	invited := make([]InvitedUser, 0)
	for invitation := range s.invitations {
		if invitation.GuideID != guideID {
			continue
		}
		user, ok := s.users[invitation.UserID]
		if !ok {
			continue
		}
		invited = append(invited, InvitedUser{
			GuideID: invitation.GuideID,
			UserID:  user.ID,
			Email:   user.Email,
			Role:    user.Role,
		})
	}
	sort.Slice(invited, func(i, j int) bool { return invited[i].UserID < invited[j].UserID })
	return invited, nil
}

func (s *MemoryStore) ListInvitedGuideIDs(_ context.Context, userID int64) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int64, 0)
	for invitation := range s.invitations {
		if invitation.UserID == userID {
			ids = append(ids, invitation.GuideID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *MemoryStore) HasInvitation(_ context.Context, guideID, userID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.invitations[Invitation{GuideID: guideID, UserID: userID}]
	return ok, nil
}

func (s *MemoryStore) CreateInvitation(_ context.Context, invitation Invitation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.guides[invitation.GuideID]; !ok {
		return fmt.Errorf("guide %d: %w", invitation.GuideID, ErrNotFound)
	}
	if _, ok := s.users[invitation.UserID]; !ok {
		return fmt.Errorf("user %d: %w", invitation.UserID, ErrNotFound)
	}
	if _, exists := s.invitations[invitation]; exists {
		return ErrConflict
	}
	s.invitations[invitation] = struct{}{}
	return nil
}

func (s *MemoryStore) DeleteInvitation(_ context.Context, guideID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := Invitation{GuideID: guideID, UserID: userID}
	if _, ok := s.invitations[key]; !ok {
		return ErrNotFound
	}
	delete(s.invitations, key)
	return nil
}

// SortActivities orders activities by visit order, then id.
func SortActivities(activities []Activity) {
	sort.SliceStable(activities, func(i, j int) bool {
		if activities[i].VisitOrder != activities[j].VisitOrder {
			return activities[i].VisitOrder < activities[j].VisitOrder
		}
		return activities[i].ID < activities[j].ID
	})
}
