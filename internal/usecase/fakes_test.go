package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"fixitnow/internal/domain/activity"
	"fixitnow/internal/domain/category"
	"fixitnow/internal/domain/chat"
	"fixitnow/internal/domain/dispute"
	"fixitnow/internal/domain/job"
	"fixitnow/internal/domain/passwordreset"
	"fixitnow/internal/domain/payment"
	"fixitnow/internal/domain/review"
	"fixitnow/internal/domain/technician"
	"fixitnow/internal/domain/user"
	"fixitnow/internal/pkg/geo"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type fakeUsers struct {
	mu sync.Mutex
	m  map[uuid.UUID]user.User
	// failCredit makes the referrer credit step of ApplyReferral fail.
	failCredit error
}

func newFakeUsers(us ...user.User) *fakeUsers {
	f := &fakeUsers{m: map[uuid.UUID]user.User{}}
	for _, u := range us {
		f.m[u.ID] = u
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, u user.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, x := range f.m {
		if x.Email != nil && u.Email != nil && *x.Email == *u.Email {
			return user.ErrDuplicate
		}
	}
	f.m[u.ID] = u
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.m[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) find(pred func(user.User) bool) (user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.m {
		if pred(u) {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (user.User, error) {
	return f.find(func(u user.User) bool { return u.Email != nil && *u.Email == email })
}

func (f *fakeUsers) GetByReferralCode(_ context.Context, code string) (user.User, error) {
	return f.find(func(u user.User) bool { return u.ReferralCode != nil && *u.ReferralCode == code })
}

func (f *fakeUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := f.GetByEmail(ctx, email)
	return err == nil, nil
}

func (f *fakeUsers) update(id uuid.UUID, fn func(*user.User) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.m[id]
	if !ok {
		return user.ErrNotFound
	}
	if err := fn(&u); err != nil {
		return err
	}
	f.m[id] = u
	return nil
}

func (f *fakeUsers) UpdateProfile(ctx context.Context, id uuid.UUID, in user.ProfileUpdate) (user.User, error) {
	err := f.update(id, func(u *user.User) error {
		if in.Name != nil {
			u.Name = *in.Name
		}
		if in.Phone != nil {
			u.Phone = in.Phone
		}
		if in.Address != nil {
			u.Address = *in.Address
		}
		if in.Lat != nil {
			u.Lat, u.Lng = in.Lat, in.Lng
		}
		return nil
	})
	if err != nil {
		return user.User{}, err
	}
	return f.GetByID(ctx, id)
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	return f.update(id, func(u *user.User) error { u.PasswordHash = hash; return nil })
}

func (f *fakeUsers) SetReferralCode(_ context.Context, id uuid.UUID, code string) error {
	return f.update(id, func(u *user.User) error { u.ReferralCode = &code; return nil })
}

// ApplyReferral mirrors the transactional repository: nothing is written
// unless both steps succeed.
func (f *fakeUsers) ApplyReferral(_ context.Context, id, referrerID uuid.UUID, bonus int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.m[id]
	if !ok {
		return user.ErrNotFound
	}
	if u.ReferredBy != nil {
		return user.ErrAlreadyReferred
	}
	ref, ok := f.m[referrerID]
	if !ok {
		return user.ErrNotFound
	}
	if f.failCredit != nil {
		return f.failCredit
	}
	u.ReferredBy = &referrerID
	ref.LoyaltyPoints += bonus
	f.m[id] = u
	f.m[referrerID] = ref
	return nil
}

func (f *fakeUsers) AddLoyaltyPoints(_ context.Context, id uuid.UUID, delta int) (int, error) {
	var balance int
	err := f.update(id, func(u *user.User) error {
		if u.LoyaltyPoints+delta < 0 {
			return user.ErrInsufficientPoints
		}
		u.LoyaltyPoints += delta
		balance = u.LoyaltyPoints
		return nil
	})
	return balance, err
}

func (f *fakeUsers) SetLoyaltyPoints(_ context.Context, id uuid.UUID, points int) error {
	return f.update(id, func(u *user.User) error { u.LoyaltyPoints = points; return nil })
}

func (f *fakeUsers) List(_ context.Context, fl user.ListFilter) ([]user.User, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []user.User
	for _, u := range f.m {
		if fl.Role != "" && u.Role != fl.Role {
			continue
		}
		if fl.Query != "" && !strings.Contains(strings.ToLower(u.Name), strings.ToLower(fl.Query)) {
			continue
		}
		out = append(out, u)
	}
	return out, len(out), nil
}

func (f *fakeUsers) Count(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.m), nil
}

type fakeTechs struct {
	mu          sync.Mutex
	m           map[uuid.UUID]technician.Technician
	nearbyCalls int
}

func newFakeTechs(ts ...technician.Technician) *fakeTechs {
	f := &fakeTechs{m: map[uuid.UUID]technician.Technician{}}
	for _, t := range ts {
		f.m[t.ID] = t
	}
	return f
}

func (f *fakeTechs) Create(_ context.Context, t technician.Technician, serviceIDs []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, x := range f.m {
		if x.UserID == t.UserID {
			return technician.ErrAlreadyExists
		}
	}
	for _, id := range serviceIDs {
		t.Services = append(t.Services, technician.Service{ID: id, Name: "General"})
	}
	f.m[t.ID] = t
	return nil
}

func (f *fakeTechs) GetByID(_ context.Context, id uuid.UUID) (technician.Technician, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.m[id]
	if !ok {
		return technician.Technician{}, technician.ErrNotFound
	}
	return t, nil
}

func (f *fakeTechs) GetByUserID(_ context.Context, userID uuid.UUID) (technician.Technician, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.m {
		if t.UserID == userID {
			return t, nil
		}
	}
	return technician.Technician{}, technician.ErrNotFound
}

func (f *fakeTechs) Nearby(_ context.Context, fl technician.GeoFilter) ([]technician.Nearby, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nearbyCalls++
	var out []technician.Nearby
	for _, t := range f.m {
		if !t.Approved || t.Rating < fl.MinRating || (fl.PremiumOnly && !t.Premium) {
			continue
		}
		d := geo.DistanceKm(fl.Lat, fl.Lng, t.Lat, t.Lng)
		if fl.RadiusKm > 0 && d > fl.RadiusKm {
			continue
		}
		out = append(out, technician.Nearby{Technician: t, DistanceKm: d})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	return out, nil
}

func (f *fakeTechs) List(_ context.Context, fl technician.ListFilter) ([]technician.Technician, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []technician.Technician
	for _, t := range f.m {
		if fl.Approved != nil && t.Approved != *fl.Approved {
			continue
		}
		out = append(out, t)
	}
	return out, len(out), nil
}

func (f *fakeTechs) update(id uuid.UUID, fn func(*technician.Technician)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.m[id]
	if !ok {
		return technician.ErrNotFound
	}
	fn(&t)
	f.m[id] = t
	return nil
}

func (f *fakeTechs) SetApproved(_ context.Context, id uuid.UUID, approved bool) error {
	return f.update(id, func(t *technician.Technician) { t.Approved = approved })
}

func (f *fakeTechs) SetPremium(_ context.Context, id uuid.UUID, premium bool) error {
	return f.update(id, func(t *technician.Technician) { t.Premium = premium })
}

func (f *fakeTechs) SetAvailability(_ context.Context, id uuid.UUID, status technician.AvailabilityStatus, next *time.Time) error {
	return f.update(id, func(t *technician.Technician) {
		t.AvailabilityStatus = status
		t.NextAvailable = next
	})
}

func (f *fakeTechs) ReleaseExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, t := range f.m {
		if t.AvailabilityStatus == technician.StatusBusy && t.NextAvailable != nil && !t.NextAvailable.After(now) {
			t.AvailabilityStatus = technician.StatusAvailable
			t.NextAvailable = nil
			f.m[id] = t
			n++
		}
	}
	return n, nil
}

func (f *fakeTechs) AvailabilityOf(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]technician.Availability, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[uuid.UUID]technician.Availability, len(ids))
	for _, id := range ids {
		if t, ok := f.m[id]; ok {
			out[id] = technician.Availability{Status: t.AvailabilityStatus, NextAvailable: t.NextAvailable}
		}
	}
	return out, nil
}

func (f *fakeTechs) FoldRating(_ context.Context, id uuid.UUID, rating int) error {
	return f.update(id, func(t *technician.Technician) {
		t.Rating, t.ReviewsCount = technician.IncrementalRating(t.Rating, t.ReviewsCount, float64(rating))
	})
}

func (f *fakeTechs) UpdateRating(_ context.Context, id uuid.UUID, rating float64, count int) error {
	return f.update(id, func(t *technician.Technician) {
		t.Rating = rating
		t.ReviewsCount = count
	})
}

func (f *fakeTechs) CountApproved(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.m {
		if t.Approved {
			n++
		}
	}
	return n, nil
}

func (f *fakeTechs) AverageRating(context.Context) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.m) == 0 {
		return 0, nil
	}
	var sum float64
	for _, t := range f.m {
		sum += t.Rating
	}
	return sum / float64(len(f.m)), nil
}

func (f *fakeTechs) get(id uuid.UUID) technician.Technician {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.m[id]
}

type fakeJobs struct {
	mu      sync.Mutex
	m       map[uuid.UUID]job.Job
	history []job.StatusChange
	prices  []float64
}

func newFakeJobs(js ...job.Job) *fakeJobs {
	f := &fakeJobs{m: map[uuid.UUID]job.Job{}}
	for _, j := range js {
		f.m[j.ID] = j
	}
	return f
}

func (f *fakeJobs) Create(_ context.Context, j job.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.m[j.ID] = j
	return nil
}

func (f *fakeJobs) GetByID(_ context.Context, id uuid.UUID) (job.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.m[id]
	if !ok {
		return job.Job{}, job.ErrNotFound
	}
	return j, nil
}

func (f *fakeJobs) List(_ context.Context, fl job.ListFilter) ([]job.Job, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []job.Job
	for _, j := range f.m {
		if fl.UserID != nil && j.UserID != *fl.UserID {
			continue
		}
		if fl.TechID != nil && j.TechID != *fl.TechID {
			continue
		}
		if fl.Status != "" && j.Status != fl.Status {
			continue
		}
		out = append(out, j)
	}
	return out, len(out), nil
}

func (f *fakeJobs) UpdateStatus(_ context.Context, c job.StatusChange) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.m[c.JobID]
	if !ok {
		return job.ErrNotFound
	}
	if j.Status != c.From {
		return job.ErrInvalidTransition
	}
	j.Status = c.To
	f.m[c.JobID] = j
	f.history = append(f.history, c)
	return nil
}

func (f *fakeJobs) Complete(ctx context.Context, id uuid.UUID, c job.Completion, change job.StatusChange) error {
	if err := f.UpdateStatus(ctx, change); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	j := f.m[id]
	rev := c.Review
	j.Review = &rev
	j.PaymentStatus = c.PaymentStatus
	j.CompletedAt = &c.CompletedAt
	f.m[id] = j
	return nil
}

func (f *fakeJobs) SetVideoCallID(_ context.Context, id uuid.UUID, callID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.m[id]
	if !ok {
		return job.ErrNotFound
	}
	j.VideoCallID = callID
	f.m[id] = j
	return nil
}

func (f *fakeJobs) SetPaymentStatus(_ context.Context, id uuid.UUID, status job.PaymentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.m[id]
	if !ok {
		return job.ErrNotFound
	}
	j.PaymentStatus = status
	f.m[id] = j
	return nil
}

func (f *fakeJobs) RecentPrices(context.Context, string, int) ([]float64, error) {
	return f.prices, nil
}

func (f *fakeJobs) Count(_ context.Context, status job.Status) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, j := range f.m {
		if status == "" || j.Status == status {
			n++
		}
	}
	return n, nil
}

func (f *fakeJobs) get(id uuid.UUID) job.Job {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.m[id]
}

type fakeReviews struct {
	mu sync.Mutex
	m  []review.Review
}

func (f *fakeReviews) Create(_ context.Context, r review.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, x := range f.m {
		if x.JobID == r.JobID {
			return review.ErrAlreadyExists
		}
	}
	f.m = append(f.m, r)
	return nil
}

func (f *fakeReviews) ListByTech(_ context.Context, techID uuid.UUID, limit, offset int) ([]review.Review, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []review.Review
	for _, r := range f.m {
		if r.TechID == techID {
			out = append(out, r)
		}
	}
	return out, len(out), nil
}

func (f *fakeReviews) Summary(_ context.Context, techID uuid.UUID) (review.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var s review.Summary
	var sum int
	for _, r := range f.m {
		if r.TechID == techID {
			sum += r.Rating
			s.ReviewCount++
		}
	}
	if s.ReviewCount > 0 {
		s.AverageRating = float64(sum) / float64(s.ReviewCount)
	}
	return s, nil
}

type fakeDisputes struct {
	mu         sync.Mutex
	m          map[uuid.UUID]dispute.Dispute
	complaints int
}

func newFakeDisputes() *fakeDisputes {
	return &fakeDisputes{m: map[uuid.UUID]dispute.Dispute{}}
}

func (f *fakeDisputes) Create(_ context.Context, d dispute.Dispute) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, x := range f.m {
		if x.JobID == d.JobID {
			return dispute.ErrAlreadyExists
		}
	}
	f.m[d.ID] = d
	return nil
}

func (f *fakeDisputes) GetByID(_ context.Context, id uuid.UUID) (dispute.Dispute, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.m[id]
	if !ok {
		return dispute.Dispute{}, dispute.ErrNotFound
	}
	return d, nil
}

func (f *fakeDisputes) ListForUser(_ context.Context, userID uuid.UUID, _ int) ([]dispute.Dispute, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []dispute.Dispute
	for _, d := range f.m {
		if d.OpenedBy == userID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDisputes) AddMessage(_ context.Context, id uuid.UUID, m dispute.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.m[id]
	if !ok {
		return dispute.ErrNotFound
	}
	d.Messages = append(d.Messages, m)
	f.m[id] = d
	return nil
}

func (f *fakeDisputes) SetStatus(_ context.Context, id uuid.UUID, status dispute.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.m[id]
	if !ok {
		return dispute.ErrNotFound
	}
	d.Status = status
	f.m[id] = d
	return nil
}

func (f *fakeDisputes) Resolve(_ context.Context, id uuid.UUID, by uuid.UUID, resolution string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.m[id]
	if !ok {
		return dispute.ErrNotFound
	}
	if d.Status == dispute.StatusResolved {
		return dispute.ErrResolved
	}
	d.Status = dispute.StatusResolved
	d.Resolution = resolution
	d.ResolvedBy = &by
	d.ResolvedAt = &at
	f.m[id] = d
	return nil
}

func (f *fakeDisputes) CountForTechnician(context.Context, uuid.UUID) (int, error) {
	return f.complaints, nil
}

type fakeChats struct {
	mu       sync.Mutex
	m        map[uuid.UUID]chat.Chat
	messages map[uuid.UUID][]chat.Message
	techUser map[uuid.UUID]uuid.UUID
}

func newFakeChats(techUser map[uuid.UUID]uuid.UUID) *fakeChats {
	return &fakeChats{m: map[uuid.UUID]chat.Chat{}, messages: map[uuid.UUID][]chat.Message{}, techUser: techUser}
}

func (f *fakeChats) GetOrCreate(_ context.Context, userID, techID uuid.UUID) (chat.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.m {
		if c.UserID == userID && c.TechID == techID {
			return c, nil
		}
	}
	c := chat.Chat{ID: uuid.New(), UserID: userID, TechID: techID, TechUserID: f.techUser[techID]}
	f.m[c.ID] = c
	return c, nil
}

func (f *fakeChats) GetByID(_ context.Context, id uuid.UUID) (chat.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.m[id]
	if !ok {
		return chat.Chat{}, chat.ErrNotFound
	}
	return c, nil
}

func (f *fakeChats) AddMessage(_ context.Context, m chat.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.m[m.ChatID]
	if !ok {
		return chat.ErrNotFound
	}
	if m.SenderModel == chat.SenderUser {
		c.UnreadForTech++
	} else {
		c.UnreadForUser++
	}
	c.LastMessage = m.Content
	f.m[c.ID] = c
	f.messages[c.ID] = append(f.messages[c.ID], m)
	return nil
}

func (f *fakeChats) MarkRead(_ context.Context, id uuid.UUID, side chat.SenderModel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.m[id]
	if !ok {
		return chat.ErrNotFound
	}
	if side == chat.SenderUser {
		c.UnreadForUser = 0
	} else {
		c.UnreadForTech = 0
	}
	f.m[id] = c
	return nil
}

func (f *fakeChats) ListForParticipant(_ context.Context, userID uuid.UUID, _ int) ([]chat.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []chat.Chat
	for _, c := range f.m {
		if c.IsParticipant(userID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeChats) Messages(_ context.Context, chatID uuid.UUID) ([]chat.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.messages[chatID], nil
}

type fakeCategories struct {
	mu sync.Mutex
	m  map[uuid.UUID]category.Category
}

func newFakeCategories(cs ...category.Category) *fakeCategories {
	f := &fakeCategories{m: map[uuid.UUID]category.Category{}}
	for _, c := range cs {
		f.m[c.ID] = c
	}
	return f
}

func (f *fakeCategories) Create(_ context.Context, c category.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, x := range f.m {
		if strings.EqualFold(x.Name, c.Name) {
			return category.ErrDuplicate
		}
	}
	f.m[c.ID] = c
	return nil
}

func (f *fakeCategories) GetByID(_ context.Context, id uuid.UUID) (category.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.m[id]
	if !ok {
		return category.Category{}, category.ErrNotFound
	}
	return c, nil
}

func (f *fakeCategories) GetByName(_ context.Context, name string) (category.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.m {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return category.Category{}, category.ErrNotFound
}

func (f *fakeCategories) ListActive(context.Context) ([]category.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []category.Category
	for _, c := range f.m {
		if c.Active {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeCategories) Update(_ context.Context, id uuid.UUID, in category.Update) (category.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.m[id]
	if !ok {
		return category.Category{}, category.ErrNotFound
	}
	if in.Name != nil {
		c.Name = *in.Name
	}
	if in.Active != nil {
		c.Active = *in.Active
	}
	f.m[id] = c
	return c, nil
}

func (f *fakeCategories) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.m[id]; !ok {
		return category.ErrNotFound
	}
	delete(f.m, id)
	return nil
}

func (f *fakeCategories) CountExisting(_ context.Context, ids []uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, id := range ids {
		if _, ok := f.m[id]; ok {
			n++
		}
	}
	return n, nil
}

type fakeActivities struct {
	mu     sync.Mutex
	items  []activity.Activity
	counts []activity.Count
}

func (f *fakeActivities) Create(_ context.Context, a activity.Activity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, a)
	return nil
}

func (f *fakeActivities) List(_ context.Context, fl activity.ListFilter) ([]activity.Activity, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []activity.Activity
	for _, a := range f.items {
		if fl.Action == "" || a.Action == fl.Action {
			out = append(out, a)
		}
	}
	return out, len(out), nil
}

func (f *fakeActivities) CountSince(context.Context, []activity.Action, time.Time) ([]activity.Count, error) {
	return f.counts, nil
}

type fakePayments struct {
	mu sync.Mutex
	m  map[uuid.UUID]payment.Payment
}

func newFakePayments() *fakePayments {
	return &fakePayments{m: map[uuid.UUID]payment.Payment{}}
}

func (f *fakePayments) GetOrCreate(_ context.Context, p payment.Payment) (payment.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if x, ok := f.m[p.JobID]; ok {
		return x, nil
	}
	f.m[p.JobID] = p
	return p, nil
}

func (f *fakePayments) GetByJobID(_ context.Context, jobID uuid.UUID) (payment.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.m[jobID]
	if !ok {
		return payment.Payment{}, payment.ErrNotFound
	}
	return p, nil
}

func (f *fakePayments) MarkPaid(_ context.Context, jobID, by uuid.UUID, at time.Time) (payment.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.m[jobID]
	if !ok {
		return payment.Payment{}, payment.ErrNotFound
	}
	p.Status = payment.StatusPaid
	p.PaidAt = &at
	p.ConfirmedBy = &by
	f.m[jobID] = p
	return p, nil
}

type fakeResets struct {
	mu sync.Mutex
	m  map[string]passwordreset.Reset
}

func newFakeResets() *fakeResets {
	return &fakeResets{m: map[string]passwordreset.Reset{}}
}

func (f *fakeResets) Replace(_ context.Context, r passwordreset.Reset) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, x := range f.m {
		if x.UserID == r.UserID {
			delete(f.m, k)
		}
	}
	f.m[r.Token] = r
	return nil
}

func (f *fakeResets) GetByToken(_ context.Context, token string) (passwordreset.Reset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.m[token]
	if !ok {
		return passwordreset.Reset{}, passwordreset.ErrNotFound
	}
	return r, nil
}

func (f *fakeResets) DeleteByUser(_ context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, x := range f.m {
		if x.UserID == userID {
			delete(f.m, k)
		}
	}
	return nil
}

func (f *fakeResets) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for k, x := range f.m {
		if x.Expired(now) {
			delete(f.m, k)
			n++
		}
	}
	return n, nil
}

// memStore backs both the lock store and the JSON cache in tests.
type memStore struct {
	mu   sync.Mutex
	m    map[string]string
	json map[string]any
	gets int
	hits int
	down bool
}

var errStoreDown = errors.New("store down")

func newMemStore() *memStore {
	return &memStore{m: map[string]string{}, json: map[string]any{}}
}

func (s *memStore) SetIfNotExists(_ context.Context, key, value string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return false, errStoreDown
	}
	if _, ok := s.m[key]; ok {
		return false, nil
	}
	s.m[key] = value
	return true, nil
}

func (s *memStore) Set(_ context.Context, key, value string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return errStoreDown
	}
	s.m[key] = value
	return nil
}

func (s *memStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return false, errStoreDown
	}
	_, ok := s.m[key]
	return ok, nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return errStoreDown
	}
	delete(s.m, key)
	delete(s.json, key)
	return nil
}

// GetJSON copies the stored value through a type switch; tests only cache
// the handful of types below.
func (s *memStore) GetJSON(_ context.Context, key string, out any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	v, ok := s.json[key]
	if !ok {
		return false, nil
	}
	switch dst := out.(type) {
	case *Analytics:
		*dst = v.(Analytics)
	case *[]category.Category:
		*dst = v.([]category.Category)
	case *[]technician.Nearby:
		*dst = v.([]technician.Nearby)
	default:
		return false, nil
	}
	s.hits++
	return true, nil
}

func (s *memStore) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.json[key] = value
	return nil
}

// DeleteByPattern supports trailing-star prefixes only.
func (s *memStore) DeleteByPattern(_ context.Context, pattern string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range s.json {
		if strings.HasPrefix(k, prefix) {
			delete(s.json, k)
		}
	}
	return nil
}

func (s *memStore) hasJSON(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.json[key]
	return ok
}

func (s *memStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.m[key]
	return ok
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) Emit(_ context.Context, room, event string, payload any) {
	m.Called(room, event, payload)
}

type recordedActivity struct {
	Action  activity.Action
	UserID  *uuid.UUID
	Details activity.Details
}

type captureRecorder struct {
	mu    sync.Mutex
	items []recordedActivity
}

func (r *captureRecorder) Record(_ context.Context, action activity.Action, userID *uuid.UUID, details activity.Details, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, recordedActivity{Action: action, UserID: userID, Details: details})
}

func (r *captureRecorder) actions() []activity.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]activity.Action, 0, len(r.items))
	for _, it := range r.items {
		out = append(out, it.Action)
	}
	return out
}

func (r *captureRecorder) find(a activity.Action) (recordedActivity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range r.items {
		if it.Action == a {
			return it, true
		}
	}
	return recordedActivity{}, false
}

func strPtr(s string) *string { return &s }

func approvedTech(userID uuid.UUID, lat, lng, rating float64) technician.Technician {
	return technician.Technician{
		ID:                 uuid.New(),
		UserID:             userID,
		Name:               "Tech",
		Lat:                lat,
		Lng:                lng,
		Rating:             rating,
		Approved:           true,
		AvailabilityStatus: technician.StatusAvailable,
		Services:           []technician.Service{{ID: uuid.New(), Name: "Plumbing"}},
	}
}
