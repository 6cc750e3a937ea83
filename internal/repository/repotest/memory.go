// Package repotest provides in-memory repositories for handler and service tests.
package repotest

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AnshRaj112/inframonitor-backend/internal/apperr"
	"github.com/AnshRaj112/inframonitor-backend/internal/models"
	"github.com/AnshRaj112/inframonitor-backend/internal/repository"
)

// Tx runs fn without a session.
type Tx struct{}

func (Tx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Users is an in-memory UserRepository.
type Users struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func NewUsers() *Users {
	return &Users{users: map[primitive.ObjectID]*models.User{}}
}

// Add seeds a user with email <name>@example.com and returns a copy.
func (f *Users) Add(name string, role models.Role) *models.User {
	u := models.NewUser(name, name+"@example.com", "")
	u.Role = role
	f.mu.Lock()
	f.users[u.ID] = u
	f.mu.Unlock()
	cp := *u
	return &cp
}

func (f *Users) Get(id primitive.ObjectID) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *f.users[id]
	return &cp
}

func (f *Users) Create(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return apperr.Duplicate("email already in use")
		}
	}
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *Users) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, apperr.NotFound("User not found")
	}
	cp := *u
	return &cp, nil
}

func (f *Users) FindByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("User not found")
}

func (f *Users) FindSummaries(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.UserSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[primitive.ObjectID]*models.UserSummary{}
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out[id] = u.Summary()
		}
	}
	return out, nil
}

func (f *Users) FindByRole(_ context.Context, role models.Role) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.User
	for _, u := range f.users {
		if u.Role == role {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *Users) UpdateProfile(_ context.Context, id primitive.ObjectID, patch models.ProfileUpdate) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, apperr.NotFound("User not found")
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Profile != nil {
		u.Profile = *patch.Profile
	}
	if patch.Preferences != nil && patch.Preferences.Notifications != nil {
		if v := patch.Preferences.Notifications.Email; v != nil {
			u.Preferences.Notifications.Email = *v
		}
		if v := patch.Preferences.Notifications.Push; v != nil {
			u.Preferences.Notifications.Push = *v
		}
	}
	cp := *u
	return &cp, nil
}

func (f *Users) UpdatePassword(_ context.Context, id primitive.ObjectID, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return apperr.NotFound("User not found")
	}
	u.PasswordHash = hash
	return nil
}

func (f *Users) TouchLastLogin(_ context.Context, id primitive.ObjectID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.LastLogin = &at
	}
	return nil
}

func (f *Users) AddStats(_ context.Context, id primitive.ObjectID, d repository.StatsDelta) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return apperr.NotFound("User not found")
	}
	u.Stats.ReportsCount += d.Reports
	u.Stats.ConfirmationsCount += d.Confirmations
	u.Stats.Points += d.Points
	u.Stats.Level = models.LevelForPoints(u.Stats.Points)
	return nil
}

func (f *Users) TopByPoints(_ context.Context, limit int64) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := make([]models.User, 0, len(f.users))
	for _, u := range f.users {
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Stats.Points != all[j].Stats.Points {
			return all[i].Stats.Points > all[j].Stats.Points
		}
		return all[i].ID.Hex() < all[j].ID.Hex()
	})
	if int64(len(all)) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (f *Users) Count(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.users)), nil
}

// Occurrences is an in-memory OccurrenceRepository ordered newest first.
type Occurrences struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]*models.Occurrence
}

func NewOccurrences() *Occurrences {
	return &Occurrences{byID: map[primitive.ObjectID]*models.Occurrence{}}
}

// Get returns a copy of the stored occurrence, or nil.
func (f *Occurrences) Get(id primitive.ObjectID) *models.Occurrence {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.byID[id]
	if !ok {
		return nil
	}
	cp := *o
	return &cp
}

func (f *Occurrences) sorted(filter repository.OccurrenceFilter) []models.Occurrence {
	var out []models.Occurrence
	for _, o := range f.byID {
		if filter.Match(o) {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.Hex() > out[j].ID.Hex()
	})
	return out
}

func (f *Occurrences) Create(_ context.Context, o *models.Occurrence) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *o
	f.byID[o.ID] = &cp
	return nil
}

func (f *Occurrences) FindByID(_ context.Context, id primitive.ObjectID) (*models.Occurrence, error) {
	if o := f.Get(id); o != nil {
		return o, nil
	}
	return nil, apperr.NotFound("Occurrence not found")
}

func (f *Occurrences) List(_ context.Context, filter repository.OccurrenceFilter, skip, limit int64) ([]models.Occurrence, error) {
	if skip < 0 || limit < 0 {
		return nil, fmt.Errorf("invalid skip %d or limit %d", skip, limit)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.sorted(filter)
	if skip >= int64(len(all)) {
		return []models.Occurrence{}, nil
	}
	all = all[skip:]
	if limit > 0 && int64(len(all)) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (f *Occurrences) Count(_ context.Context, filter repository.OccurrenceFilter) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.sorted(filter))), nil
}

func (f *Occurrences) Update(_ context.Context, o *models.Occurrence) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[o.ID]; !ok {
		return apperr.NotFound("Occurrence not found")
	}
	cp := *o
	f.byID[o.ID] = &cp
	return nil
}

func (f *Occurrences) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return apperr.NotFound("Occurrence not found")
	}
	delete(f.byID, id)
	return nil
}

func (f *Occurrences) IncrementConfirmations(_ context.Context, id primitive.ObjectID, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.byID[id]
	if !ok {
		return apperr.NotFound("Occurrence not found")
	}
	o.ConfirmationCount += delta
	return nil
}

func (f *Occurrences) AddImage(_ context.Context, id primitive.ObjectID, img models.ImageMeta) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.byID[id]
	if !ok {
		return apperr.NotFound("Occurrence not found")
	}
	o.Images = append(o.Images, img)
	return nil
}

func (f *Occurrences) CountBy(_ context.Context, field string) (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]int64{}
	for _, o := range f.byID {
		switch field {
		case "type":
			out[string(o.Type)]++
		case "status":
			out[string(o.Status)]++
		}
	}
	return out, nil
}

func (f *Occurrences) Hotspots(_ context.Context, limit int64) ([]models.Hotspot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	type key struct{ lat, lng float64 }
	counts := map[key]int64{}
	for _, o := range f.byID {
		counts[key{round2(o.Location.Lat), round2(o.Location.Lng)}]++
	}
	out := make([]models.Hotspot, 0, len(counts))
	for k, c := range counts {
		out = append(out, models.Hotspot{Lat: k.lat, Lng: k.lng, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Lat < out[j].Lat
	})
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Confirmations is an in-memory ConfirmationRepository enforcing the per-user uniqueness of the real index.
type Confirmations struct {
	mu    sync.Mutex
	items []models.Confirmation
}

func (f *Confirmations) Create(_ context.Context, c *models.Confirmation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.items {
		if e.OccurrenceID != c.OccurrenceID {
			continue
		}
		if c.UserID != nil && e.UserID != nil && *c.UserID == *e.UserID {
			return repository.ErrAlreadyConfirmed()
		}
		if c.AnonymousKey != "" && c.AnonymousKey == e.AnonymousKey {
			return repository.ErrAlreadyConfirmed()
		}
	}
	f.items = append(f.items, *c)
	return nil
}

func (f *Confirmations) ExistsForUser(_ context.Context, occurrenceID, userID primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.items {
		if e.OccurrenceID == occurrenceID && e.UserID != nil && *e.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *Confirmations) ExistsForAnonymousKey(_ context.Context, occurrenceID primitive.ObjectID, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.items {
		if e.OccurrenceID == occurrenceID && e.AnonymousKey == key {
			return true, nil
		}
	}
	return false, nil
}

func (f *Confirmations) ListByOccurrence(_ context.Context, occurrenceID primitive.ObjectID) ([]models.Confirmation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Confirmation
	for i := len(f.items) - 1; i >= 0; i-- {
		if f.items[i].OccurrenceID == occurrenceID {
			out = append(out, f.items[i])
		}
	}
	return out, nil
}

func (f *Confirmations) DeleteByOccurrence(_ context.Context, occurrenceID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.items[:0]
	for _, e := range f.items {
		if e.OccurrenceID != occurrenceID {
			kept = append(kept, e)
		}
	}
	f.items = kept
	return nil
}

func (f *Confirmations) Count(_ context.Context, since time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, e := range f.items {
		if since.IsZero() || !e.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// Len reports how many occurrences are stored.
func (f *Occurrences) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

// Len reports how many confirmations are stored.
func (f *Confirmations) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

var (
	_ repository.UserRepository         = (*Users)(nil)
	_ repository.OccurrenceRepository   = (*Occurrences)(nil)
	_ repository.ConfirmationRepository = (*Confirmations)(nil)
	_ repository.TxRunner               = Tx{}
)
