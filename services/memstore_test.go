package services

import (
	"context"
	"sync"
	"time"

	"rockspotter/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// memStore is an in-memory EntityStore with the same idempotency contract as the Mongo store
type memStore struct {
	mu           sync.Mutex
	users        map[primitive.ObjectID]models.User
	rocks        map[primitive.ObjectID]models.Rock
	hunts        map[primitive.ObjectID]models.Hunt
	achievements []models.Achievement
	awards       []models.Award
}

func newMemStore() *memStore {
	return &memStore{
		users: make(map[primitive.ObjectID]models.User),
		rocks: make(map[primitive.ObjectID]models.Rock),
		hunts: make(map[primitive.ObjectID]models.Hunt),
	}
}

func (m *memStore) addUser(name string) primitive.ObjectID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := primitive.NewObjectID()
	m.users[id] = models.User{ID: id, Username: name, Email: name + "@example.com", Role: models.RoleUser}
	return id
}

func (m *memStore) addRock(owner primitive.ObjectID, rockType string) primitive.ObjectID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := primitive.NewObjectID()
	m.rocks[id] = models.Rock{ID: id, Title: "rock", RockType: rockType, User: owner, IsPublic: true}
	return id
}

func (m *memStore) addHunt(difficulty string, rocks ...primitive.ObjectID) primitive.ObjectID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := primitive.NewObjectID()
	hunt := models.Hunt{ID: id, Title: "hunt", Difficulty: difficulty, IsActive: true}
	for i, r := range rocks {
		hunt.Rocks = append(hunt.Rocks, models.HuntRock{Rock: r, Order: i + 1})
	}
	m.hunts[id] = hunt
	return id
}

func (m *memStore) addAchievement(a models.Achievement) primitive.ObjectID {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = primitive.NewObjectID()
	m.achievements = append(m.achievements, a)
	return a.ID
}

func (m *memStore) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	u.RockTypes = append([]string(nil), u.RockTypes...)
	u.HuntDifficulties = append([]string(nil), u.HuntDifficulties...)
	u.Credits = append([]string(nil), u.Credits...)
	return &u, nil
}

func (m *memStore) UpdateUserCounters(ctx context.Context, id primitive.ObjectID, delta models.CounterDelta) (*models.User, error) {
	m.mu.Lock()
	u, ok := m.users[id]
	if !ok {
		m.mu.Unlock()
		return nil, mongo.ErrNoDocuments
	}
	m.users[id] = applyDelta(u, delta)
	m.mu.Unlock()
	return m.GetUser(ctx, id)
}

func (m *memStore) CreditUser(ctx context.Context, id primitive.ObjectID, key string, delta models.CounterDelta) (*models.User, bool, error) {
	m.mu.Lock()
	u, ok := m.users[id]
	if !ok {
		m.mu.Unlock()
		return nil, false, mongo.ErrNoDocuments
	}
	credited := !containsString(u.Credits, key)
	if credited {
		u = applyDelta(u, delta)
		u.Credits = append(append([]string(nil), u.Credits...), key)
		m.users[id] = u
	}
	m.mu.Unlock()
	user, err := m.GetUser(ctx, id)
	return user, credited, err
}

func applyDelta(u models.User, delta models.CounterDelta) models.User {
	u.RockCount += delta.RockCount
	u.HuntCount += delta.HuntCount
	u.SocialCount += delta.SocialCount
	if delta.RockType != "" && !containsString(u.RockTypes, delta.RockType) {
		u.RockTypes = append(append([]string(nil), u.RockTypes...), delta.RockType)
	}
	if delta.Difficulty != "" && !containsString(u.HuntDifficulties, delta.Difficulty) {
		u.HuntDifficulties = append(append([]string(nil), u.HuntDifficulties...), delta.Difficulty)
	}
	return u
}

func (m *memStore) UpdateUserStreak(ctx context.Context, id primitive.ObjectID, prevDay, day string, streak int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || u.LastActiveDay != prevDay {
		return false, nil
	}
	u.LastActiveDay = day
	u.CurrentStreak = streak
	m.users[id] = u
	return true, nil
}

func (m *memStore) GetRock(ctx context.Context, id primitive.ObjectID) (*models.Rock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rocks[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	r.Likes = append([]primitive.ObjectID(nil), r.Likes...)
	r.Comments = append([]models.RockComment(nil), r.Comments...)
	return &r, nil
}

func (m *memStore) MarkRockCounted(ctx context.Context, id primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rocks[id]
	if !ok || r.Counted {
		return false, nil
	}
	r.Counted = true
	m.rocks[id] = r
	return true, nil
}

func (m *memStore) ListUncountedRocks(ctx context.Context, before time.Time, limit int64) ([]models.Rock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Rock
	for _, r := range m.rocks {
		if !r.Counted && r.CreatedAt.Before(before) && int64(len(out)) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) AddLike(ctx context.Context, rockID, userID primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rocks[rockID]
	if !ok || containsID(r.Likes, userID) {
		return false, nil
	}
	r.Likes = append(r.Likes, userID)
	m.rocks[rockID] = r
	return true, nil
}

func (m *memStore) RemoveLike(ctx context.Context, rockID, userID primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rocks[rockID]
	if !ok || !containsID(r.Likes, userID) {
		return false, nil
	}
	likes := r.Likes[:0:0]
	for _, id := range r.Likes {
		if id != userID {
			likes = append(likes, id)
		}
	}
	r.Likes = likes
	m.rocks[rockID] = r
	return true, nil
}

func (m *memStore) AddComment(ctx context.Context, rockID primitive.ObjectID, comment models.RockComment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rocks[rockID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	r.Comments = append(r.Comments, comment)
	m.rocks[rockID] = r
	return nil
}

func (m *memStore) GetHunt(ctx context.Context, id primitive.ObjectID) (*models.Hunt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hunts[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	h.Participants = append([]primitive.ObjectID(nil), h.Participants...)
	progress := make([]models.HuntProgress, len(h.Progress))
	for i, p := range h.Progress {
		p.FoundRocks = append([]primitive.ObjectID(nil), p.FoundRocks...)
		progress[i] = p
	}
	h.Progress = progress
	return &h, nil
}

func (m *memStore) AddHuntParticipant(ctx context.Context, huntID, userID primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hunts[huntID]
	if !ok || containsID(h.Participants, userID) {
		return false, nil
	}
	h.Participants = append(h.Participants, userID)
	if !hasProgress(h.Progress, userID) {
		h.Progress = append(h.Progress, models.HuntProgress{User: userID, FoundRocks: []primitive.ObjectID{}})
	}
	m.hunts[huntID] = h
	return true, nil
}

func (m *memStore) RemoveHuntParticipant(ctx context.Context, huntID, userID primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hunts[huntID]
	if !ok || !containsID(h.Participants, userID) {
		return false, nil
	}
	var participants []primitive.ObjectID
	for _, p := range h.Participants {
		if p != userID {
			participants = append(participants, p)
		}
	}
	h.Participants = participants
	m.hunts[huntID] = h
	return true, nil
}

func (m *memStore) AddFoundRock(ctx context.Context, huntID, userID, rockID primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hunts[huntID]
	if !ok {
		return false, nil
	}
	for i := range h.Progress {
		if h.Progress[i].User != userID {
			continue
		}
		if containsID(h.Progress[i].FoundRocks, rockID) {
			return false, nil
		}
		h.Progress[i].FoundRocks = append(h.Progress[i].FoundRocks, rockID)
		m.hunts[huntID] = h
		return true, nil
	}
	return false, nil
}

func (m *memStore) MarkHuntCompleted(ctx context.Context, huntID, userID primitive.ObjectID, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hunts[huntID]
	if !ok {
		return false, nil
	}
	for i := range h.Progress {
		if h.Progress[i].User == userID && h.Progress[i].CompletedAt == nil {
			completed := at
			h.Progress[i].CompletedAt = &completed
			m.hunts[huntID] = h
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) GetAchievement(ctx context.Context, id primitive.ObjectID) (*models.Achievement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.achievements {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (m *memStore) ListUnawardedAchievements(ctx context.Context, userID primitive.ObjectID) ([]models.Achievement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	held := make(map[primitive.ObjectID]bool)
	for _, aw := range m.awards {
		if aw.UserID == userID {
			held[aw.AchievementID] = true
		}
	}
	var out []models.Achievement
	for _, a := range m.achievements {
		if !held[a.ID] {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) AddAward(ctx context.Context, award models.Award) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, aw := range m.awards {
		if aw.UserID == award.UserID && aw.AchievementID == award.AchievementID {
			return false, nil
		}
	}
	award.ID = primitive.NewObjectID()
	m.awards = append(m.awards, award)
	return true, nil
}

func (m *memStore) ListAwards(ctx context.Context, userID primitive.ObjectID) ([]models.Award, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Award{}
	for _, aw := range m.awards {
		if aw.UserID == userID {
			out = append(out, aw)
		}
	}
	return out, nil
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func hasProgress(progress []models.HuntProgress, userID primitive.ObjectID) bool {
	for _, p := range progress {
		if p.User == userID {
			return true
		}
	}
	return false
}

func containsString(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
