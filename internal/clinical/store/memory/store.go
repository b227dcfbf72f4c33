package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"maternidad/internal/clinical/models"
	"maternidad/internal/clinical/store"
	"maternidad/internal/report"
	"maternidad/pkg/domain"
)

// Store is the in-memory clinical store used by tests and single-process
// runs. It mirrors the postgres store's behavior, including the referential
// checks the database enforces via foreign keys.
type Store struct {
	mu         sync.RWMutex
	nextID     int64
	mothers    map[domain.MotherID]models.Mother
	deliveries map[domain.DeliveryID]models.Delivery
	newborns   map[domain.NewbornID]models.Newborn
	deaths     map[domain.DeathID]models.Death
}

func New() *Store {
	return &Store{
		nextID:     1,
		mothers:    make(map[domain.MotherID]models.Mother),
		deliveries: make(map[domain.DeliveryID]models.Delivery),
		newborns:   make(map[domain.NewbornID]models.Newborn),
		deaths:     make(map[domain.DeathID]models.Death),
	}
}

func (s *Store) allocate() int64 {
	id := s.nextID
	s.nextID++
	return id
}

// ----- mothers -----

func (s *Store) CreateMother(_ context.Context, m *models.Mother) (domain.MotherID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.mothers {
		if existing.RUT == m.RUT {
			return 0, store.ErrConflict
		}
	}
	m.ID = domain.MotherID(s.allocate())
	s.mothers[m.ID] = *m
	return m.ID, nil
}

func (s *Store) GetMother(_ context.Context, id domain.MotherID) (*models.Mother, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.mothers[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &m, nil
}

func (s *Store) ListMothers(_ context.Context) ([]models.Mother, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Mother, 0, len(s.mothers))
	for _, m := range s.mothers {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateMother(_ context.Context, m *models.Mother) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.mothers[m.ID]; !ok {
		return store.ErrNotFound
	}
	for id, existing := range s.mothers {
		if id != m.ID && existing.RUT == m.RUT {
			return store.ErrConflict
		}
	}
	s.mothers[m.ID] = *m
	return nil
}

func (s *Store) DeleteMother(_ context.Context, id domain.MotherID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.mothers[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.mothers, id)
	return nil
}

// ----- deliveries -----

func (s *Store) CreateDelivery(_ context.Context, d *models.Delivery) (domain.DeliveryID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.mothers[d.MotherID]; !ok {
		return 0, store.ErrNotFound
	}
	d.ID = domain.DeliveryID(s.allocate())
	s.deliveries[d.ID] = *d
	return d.ID, nil
}

func (s *Store) GetDelivery(_ context.Context, id domain.DeliveryID) (*models.Delivery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.deliveries[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &d, nil
}

func (s *Store) ListDeliveries(_ context.Context) ([]models.Delivery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Delivery, 0, len(s.deliveries))
	for _, d := range s.deliveries {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateDelivery(_ context.Context, d *models.Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.deliveries[d.ID]; !ok {
		return store.ErrNotFound
	}
	s.deliveries[d.ID] = *d
	return nil
}

func (s *Store) DeleteDelivery(_ context.Context, id domain.DeliveryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.deliveries[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.deliveries, id)
	return nil
}

// ----- newborns -----

func (s *Store) CreateNewborn(_ context.Context, n *models.Newborn) (domain.NewbornID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.deliveries[n.DeliveryID]; !ok {
		return 0, store.ErrNotFound
	}
	n.ID = domain.NewbornID(s.allocate())
	s.newborns[n.ID] = *n
	return n.ID, nil
}

func (s *Store) GetNewborn(_ context.Context, id domain.NewbornID) (*models.Newborn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.newborns[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &n, nil
}

func (s *Store) ListNewborns(_ context.Context) ([]models.Newborn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Newborn, 0, len(s.newborns))
	for _, n := range s.newborns {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateNewborn(_ context.Context, n *models.Newborn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.newborns[n.ID]; !ok {
		return store.ErrNotFound
	}
	s.newborns[n.ID] = *n
	return nil
}

func (s *Store) DeleteNewborn(_ context.Context, id domain.NewbornID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.newborns[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.newborns, id)
	return nil
}

// ----- deaths -----

func (s *Store) CreateDeath(_ context.Context, d *models.Death) (domain.DeathID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d.ID = domain.DeathID(s.allocate())
	s.deaths[d.ID] = *d
	return d.ID, nil
}

func (s *Store) GetDeath(_ context.Context, id domain.DeathID) (*models.Death, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.deaths[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &d, nil
}

func (s *Store) ListDeaths(_ context.Context) ([]models.Death, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Death, 0, len(s.deaths))
	for _, d := range s.deaths {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) DeleteDeath(_ context.Context, id domain.DeathID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.deaths[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.deaths, id)
	return nil
}

// ----- report snapshots -----

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}

func (s *Store) DeliveriesInRange(_ context.Context, from, to time.Time) ([]report.DeliveryRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var rows []report.DeliveryRow
	for _, d := range s.deliveries {
		if !inRange(d.Date, from, to) {
			continue
		}
		mother, ok := s.mothers[d.MotherID]
		if !ok {
			continue
		}
		rows = append(rows, report.DeliveryRow{
			Date:                d.Date,
			TypeLabel:           d.DeliveryType,
			GestationalWeeks:    d.GestationalWeeks,
			Oxytocin:            d.Oxytocin,
			DelayedCordClamping: d.DelayedCordClamping,
			SkinToSkin:          d.SkinToSkin,
			MotherBirthDate:     mother.BirthDate,
			MotherNationality:   mother.Nationality,
			MotherIndigenous:    mother.IndigenousCommunity,
		})
	}
	return rows, nil
}

func (s *Store) NewbornsInRange(_ context.Context, from, to time.Time) ([]report.NewbornRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var rows []report.NewbornRow
	for _, n := range s.newborns {
		delivery, ok := s.deliveries[n.DeliveryID]
		if !ok || !inRange(delivery.Date, from, to) {
			continue
		}
		mother, ok := s.mothers[delivery.MotherID]
		if !ok {
			continue
		}
		rows = append(rows, report.NewbornRow{
			Sex:                n.Sex,
			WeightGrams:        n.WeightGrams,
			Apgar1Min:          n.Apgar1Min,
			Apgar5Min:          n.Apgar5Min,
			OcularProphylaxis:  n.OcularProphylaxis,
			HepatitisBVaccine:  n.HepatitisBVaccine,
			CongenitalAnomaly:  n.CongenitalAnomaly,
			Resuscitation:      n.Resuscitation,
			FeedingAtDischarge: n.FeedingAtDischarge,
			DeliveryTypeLabel:  delivery.DeliveryType,
			MotherNationality:  mother.Nationality,
			MotherIndigenous:   mother.IndigenousCommunity,
		})
	}
	return rows, nil
}

func (s *Store) DeathsInRange(_ context.Context, kind models.DeathKind, from, to time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, d := range s.deaths {
		if d.Kind == kind && inRange(d.Timestamp, from, to) {
			count++
		}
	}
	return count, nil
}
