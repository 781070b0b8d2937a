// Package session persists per-phone conversation state and rehydrates it
// from the customer profile when a conversation starts or expires.
package session

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sanmarzano/orderbot/internal/delivery"
	"github.com/sanmarzano/orderbot/internal/models"
	"github.com/sanmarzano/orderbot/internal/repositories"
)

type Store struct {
	sessions repositories.SessionRepository
	users    repositories.UserRepository

	origin     models.Location
	ratePerKm  float64
	minimumFee float64
	ttl        time.Duration

	now func() time.Time
}

func NewStore(sessions repositories.SessionRepository, users repositories.UserRepository, origin models.Location, ratePerKm, minimumFee float64, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	return &Store{
		sessions:   sessions,
		users:      users,
		origin:     origin,
		ratePerKm:  ratePerKm,
		minimumFee: minimumFee,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Get returns the live session for a phone. Missing or expired sessions
// are replaced with a fresh one seeded from the customer profile.
func (s *Store) Get(ctx context.Context, phone string) (*models.Session, error) {
	sess, err := s.sessions.Get(ctx, phone)
	if err != nil {
		return nil, err
	}
	if sess != nil && s.now().Sub(sess.UpdatedAt) <= s.ttl {
		s.prefill(ctx, phone, sess)
		return sess, nil
	}

	fresh := models.NewSession()
	s.prefill(ctx, phone, fresh)
	// Persist right away so a concurrent duplicate webhook finds the row
	// instead of re-running the profile lookup.
	if err := s.Save(ctx, phone, fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}

// prefill copies profile data into the session whenever the session lacks
// it: returning customers keep their name and address, and a stored
// geolocated address re-quotes their delivery.
func (s *Store) prefill(ctx context.Context, phone string, sess *models.Session) {
	if sess.Name != "" && sess.Address != "" {
		return
	}

	customer, err := s.users.GetByPhone(ctx, phone)
	if err != nil {
		log.Printf("session: profile lookup for %s failed: %v", phone, err)
		return
	}
	if customer == nil {
		return
	}

	if sess.Name == "" {
		sess.Name = customer.Name
	}
	if sess.Address == "" {
		meta := customer.AddressInfo()
		sess.Address = meta.Text
		if sess.Delivery == nil && meta.Location != nil {
			quote := delivery.Quote(s.origin, *meta.Location, s.ratePerKm, s.minimumFee)
			sess.Delivery = &quote
		}
	}
}

// Save persists the session.
func (s *Store) Save(ctx context.Context, phone string, sess *models.Session) error {
	sess.UpdatedAt = s.now()
	if err := s.sessions.Save(ctx, phone, sess); err != nil {
		return fmt.Errorf("persisting session for %s: %w", phone, err)
	}
	return nil
}

// Reset wipes the conversation after a completed order. Identity survives
// through the customer profile, which the next Get prefills from.
func (s *Store) Reset(ctx context.Context, phone string) (*models.Session, error) {
	fresh := models.NewSession()
	s.prefill(ctx, phone, fresh)
	if err := s.Save(ctx, phone, fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}

// Drop removes the stored session entirely. The next Get starts from a
// blank slate plus whatever the customer profile prefills.
func (s *Store) Drop(ctx context.Context, phone string) error {
	return s.sessions.Delete(ctx, phone)
}

// Quote prices a delivery to the given coordinates from the restaurant.
func (s *Store) Quote(dest models.Location) models.DeliveryQuote {
	return delivery.Quote(s.origin, dest, s.ratePerKm, s.minimumFee)
}
