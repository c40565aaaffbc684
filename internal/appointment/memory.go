package appointment

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-memory Repository used by the tests and the
// simulator's dry mode. It mirrors the Postgres semantics, including
// the at-most-one-cancellation-per-appointment key.
type MemoryRepository struct {
	mu            sync.RWMutex
	patients      map[uuid.UUID]Patient
	professionals map[uuid.UUID]Professional
	appointments  map[uuid.UUID]Appointment
	cancellations map[uuid.UUID]Cancellation // keyed by appointment id
	now           func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		patients:      make(map[uuid.UUID]Patient),
		professionals: make(map[uuid.UUID]Professional),
		appointments:  make(map[uuid.UUID]Appointment),
		cancellations: make(map[uuid.UUID]Cancellation),
		now:           time.Now,
	}
}

// SetNowFunc overrides the timestamp source for created/updated
// metadata. Test use only.
func (r *MemoryRepository) SetNowFunc(now func() time.Time) {
	r.now = now
}

func (r *MemoryRepository) AddPatient(p Patient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patients[p.ID] = p
}

func (r *MemoryRepository) AddProfessional(p Professional) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.professionals[p.ID] = p
}

func (r *MemoryRepository) GetPatientByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	return &p, nil
}

func (r *MemoryRepository) GetProfessionalByID(_ context.Context, id uuid.UUID) (*Professional, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.professionals[id]
	if !ok {
		return nil, ErrProfessionalNotFound
	}
	return &p, nil
}

func (r *MemoryRepository) GetAppointmentByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return &a, nil
}

func (r *MemoryRepository) GetOwnedAppointment(_ context.Context, professionalID, id uuid.UUID) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.appointments[id]
	if !ok || a.ProfessionalID != professionalID {
		return nil, ErrAppointmentNotFound
	}
	return &a, nil
}

func (r *MemoryRepository) matches(a Appointment, f Filter) bool {
	if f.ProfessionalID != nil && a.ProfessionalID != *f.ProfessionalID {
		return false
	}
	if f.PatientID != nil && (a.PatientID == nil || *a.PatientID != *f.PatientID) {
		return false
	}
	if f.From != nil && a.StartTime.Before(*f.From) {
		return false
	}
	if f.To != nil && !a.StartTime.Before(*f.To) {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if a.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, s := range f.NotStatuses {
		if a.Status == s {
			return false
		}
	}
	if f.Specialty != nil {
		pr, ok := r.professionals[a.ProfessionalID]
		if !ok || pr.Specialty == nil || *pr.Specialty != *f.Specialty {
			return false
		}
	}
	return true
}

func (r *MemoryRepository) FindAppointments(_ context.Context, f Filter) ([]Detail, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []Detail
	for _, a := range r.appointments {
		if !r.matches(a, f) {
			continue
		}

		d := Detail{Appointment: a}
		if pr, ok := r.professionals[a.ProfessionalID]; ok {
			prCopy := pr
			d.Professional = &prCopy
		}
		result = append(result, d)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].StartTime.Before(result[j].StartTime)
	})

	return result, nil
}

func (r *MemoryRepository) CountAppointments(_ context.Context, f Filter) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, a := range r.appointments {
		if r.matches(a, f) {
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) InsertAppointment(_ context.Context, a *Appointment) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *a
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	now := r.now()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	r.appointments[stored.ID] = stored
	return &stored, nil
}

func (r *MemoryRepository) UpdateAppointmentStatus(_ context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentNotFound
	}

	a.Status = to
	a.UpdatedAt = r.now()
	r.appointments[id] = a
	return &a, nil
}

func (r *MemoryRepository) CancelAppointment(_ context.Context, c Cancellation) (*Cancellation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[c.AppointmentID]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	if a.Status == StatusCancelado {
		return nil, ErrAlreadyCancelled
	}
	if a.Status == StatusCompletado {
		return nil, ErrInvalidTransition
	}
	if _, dup := r.cancellations[c.AppointmentID]; dup {
		return nil, ErrAlreadyCancelled
	}

	a.Status = StatusCancelado
	a.UpdatedAt = r.now()
	r.appointments[a.ID] = a

	stored := c
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	r.cancellations[c.AppointmentID] = stored

	return &stored, nil
}

func (r *MemoryRepository) CountPatientsCreatedBefore(_ context.Context, t time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, p := range r.patients {
		if p.CreatedAt.Before(t) {
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) CountPatientsCreatedInRange(_ context.Context, from, to time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, p := range r.patients {
		if !p.CreatedAt.Before(from) && p.CreatedAt.Before(to) {
			n++
		}
	}
	return n, nil
}
