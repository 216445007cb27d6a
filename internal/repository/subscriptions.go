package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mr1hm/go-flood-alerts/internal/models"
)

// Subscribe registers a contact for alerts on the given locations. A contact
// may subscribe once per method.
func (s *Store) Subscribe(ctx context.Context, method models.SubscriptionMethod, contact string, locations []string) (*models.Subscription, error) {
	sub, err := newSubscription(method, contact, locations)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := contactTaken(tx, sub.Method, sub.Contact, 0)
		if err != nil {
			return err
		}
		if taken {
			return ErrAlreadySubscribed
		}
		return tx.Create(sub).Error
	})
	if err != nil {
		return nil, translateSubscriptionErr(err)
	}
	return sub, nil
}

func (s *Store) GetSubscription(ctx context.Context, id uint) (*models.Subscription, error) {
	var sub models.Subscription
	if err := s.db.WithContext(ctx).First(&sub, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &sub, nil
}

func (s *Store) ListSubscriptions(ctx context.Context) ([]models.Subscription, error) {
	var subs []models.Subscription
	if err := s.db.WithContext(ctx).Order("id").Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("error listing subscriptions: %w", err)
	}
	return subs, nil
}

func (s *Store) UpdateSubscription(ctx context.Context, id uint, method models.SubscriptionMethod, contact string, locations []string) (*models.Subscription, error) {
	next, err := newSubscription(method, contact, locations)
	if err != nil {
		return nil, err
	}

	var sub models.Subscription
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&sub, id).Error; err != nil {
			return notFound(err)
		}
		taken, err := contactTaken(tx, next.Method, next.Contact, id)
		if err != nil {
			return err
		}
		if taken {
			return ErrAlreadySubscribed
		}
		sub.Method = next.Method
		sub.Contact = next.Contact
		sub.Locations = next.Locations
		return tx.Save(&sub).Error
	})
	if err != nil {
		return nil, translateSubscriptionErr(err)
	}
	return &sub, nil
}

func (s *Store) DeleteSubscription(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Subscription{}, id)
	if res.Error != nil {
		return fmt.Errorf("error deleting subscription: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Unsubscribe(ctx context.Context, method models.SubscriptionMethod, contact string) error {
	res := s.db.WithContext(ctx).
		Where("method = ? AND contact = ?", method, strings.TrimSpace(contact)).
		Delete(&models.Subscription{})
	if res.Error != nil {
		return fmt.Errorf("error unsubscribing: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByLocation groups subscriptions under every location they list, so a
// subscriber with two locations appears under both keys.
func (s *Store) ListByLocation(ctx context.Context) (map[string][]models.Subscription, error) {
	subs, err := s.ListSubscriptions(ctx)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]models.Subscription)
	for _, sub := range subs {
		for _, loc := range sub.Locations {
			grouped[loc] = append(grouped[loc], sub)
		}
	}
	return grouped, nil
}

func (s *Store) ListForDispatch(ctx context.Context, location string, method models.SubscriptionMethod) ([]models.Subscription, error) {
	var subs []models.Subscription
	if err := s.db.WithContext(ctx).Where("method = ?", method).Order("id").Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("error listing subscribers: %w", err)
	}

	matched := subs[:0]
	for _, sub := range subs {
		if sub.Covers(location) {
			matched = append(matched, sub)
		}
	}
	return matched, nil
}

func (s *Store) SubscriptionsByLocation(ctx context.Context) ([]LabelCount, error) {
	grouped, err := s.ListByLocation(ctx)
	if err != nil {
		return nil, err
	}

	counts := make([]LabelCount, 0, len(grouped))
	for loc, subs := range grouped {
		counts = append(counts, LabelCount{Label: loc, Count: int64(len(subs))})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Label < counts[j].Label
	})
	return counts, nil
}

func (s *Store) SubscriptionMethodCounts(ctx context.Context) ([]LabelCount, error) {
	var counts []LabelCount
	err := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Select("method AS label, COUNT(*) AS count").
		Group("method").
		Order("label").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("error counting subscription methods: %w", err)
	}
	return counts, nil
}

func newSubscription(method models.SubscriptionMethod, contact string, locations []string) (*models.Subscription, error) {
	if !method.Valid() {
		return nil, fmt.Errorf("%w: method must be email or sms", ErrInvalid)
	}
	contact = strings.TrimSpace(contact)
	if contact == "" {
		return nil, fmt.Errorf("%w: contact is required", ErrInvalid)
	}

	cleaned := make([]string, 0, len(locations))
	seen := make(map[string]bool, len(locations))
	for _, loc := range locations {
		loc = strings.TrimSpace(loc)
		if loc == "" || seen[loc] {
			continue
		}
		seen[loc] = true
		cleaned = append(cleaned, loc)
	}
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("%w: at least one location is required", ErrInvalid)
	}

	return &models.Subscription{
		Method:    method,
		Contact:   contact,
		Locations: datatypes.JSONSlice[string](cleaned),
	}, nil
}

func contactTaken(tx *gorm.DB, method models.SubscriptionMethod, contact string, exceptID uint) (bool, error) {
	var count int64
	err := tx.Model(&models.Subscription{}).
		Where("method = ? AND contact = ? AND id <> ?", method, contact, exceptID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("error checking subscription: %w", err)
	}
	return count > 0, nil
}

func translateSubscriptionErr(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadySubscribed
	}
	return err
}
