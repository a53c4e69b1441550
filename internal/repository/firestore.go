package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/segyhp/dialoger-export/internal/domain"

	"cloud.google.com/go/firestore"
	"github.com/shopspring/decimal"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Collection and field names used by the mobile app
const (
	collectionPayments  = "payments"
	collectionUsers     = "users"
	collectionLocations = "locations"
	collectionConfig    = "config"
	docAutoExport       = "autoexport"
)

// NewFirestoreStore wires the Firestore repositories into a Store
func NewFirestoreStore(client *firestore.Client, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		Payments:  &firestorePaymentRepository{client: client, logger: logger},
		Users:     &firestoreUserRepository{client: client},
		Locations: &firestoreLocationRepository{client: client},
		Config:    &firestoreConfigRepository{client: client},
	}
}

type firestorePaymentRepository struct {
	client *firestore.Client
	logger *slog.Logger
}

func (r *firestorePaymentRepository) ListInRange(ctx context.Context, start, end time.Time) ([]*domain.Payment, error) {
	iter := r.client.Collection(collectionPayments).
		Where("timestamp", ">=", start).
		Where("timestamp", "<", end).
		Documents(ctx)
	defer iter.Stop()

	payments := []*domain.Payment{}
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterate payments: %w", err)
		}

		payment, malformed := paymentFromData(doc.Ref.ID, doc.Data())
		if len(malformed) > 0 {
			r.logger.WarnContext(ctx, "payment has malformed numeric fields",
				"payment_id", doc.Ref.ID,
				"fields", malformed)
		}
		payments = append(payments, payment)
	}

	return payments, nil
}

type firestoreUserRepository struct {
	client *firestore.Client
}

func (r *firestoreUserRepository) ListNonAdmin(ctx context.Context) ([]*domain.User, error) {
	docs, err := r.client.Collection(collectionUsers).
		Where("role", "!=", domain.RoleAdmin).
		Documents(ctx).
		GetAll()
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	users := make([]*domain.User, 0, len(docs))
	for _, doc := range docs {
		users = append(users, userFromData(doc.Ref.ID, doc.Data()))
	}

	return users, nil
}

type firestoreLocationRepository struct {
	client *firestore.Client
}

func (r *firestoreLocationRepository) List(ctx context.Context) ([]*domain.Location, error) {
	docs, err := r.client.Collection(collectionLocations).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}

	locations := make([]*domain.Location, 0, len(docs))
	for _, doc := range docs {
		locations = append(locations, locationFromData(doc.Ref.ID, doc.Data()))
	}

	return locations, nil
}

type firestoreConfigRepository struct {
	client *firestore.Client
}

func (r *firestoreConfigRepository) GetExportConfig(ctx context.Context) (*domain.ExportConfig, error) {
	doc, err := r.client.Collection(collectionConfig).Doc(docAutoExport).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrExportConfigNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get export config: %w", err)
	}
	if !doc.Exists() {
		return nil, ErrExportConfigNotFound
	}

	return &domain.ExportConfig{Email: stringField(doc.Data(), "email")}, nil
}

// paymentFromData maps a payment document. Numeric fields that are missing or
// not finite numbers decode as zero; their names are returned so the caller
// can log them.
func paymentFromData(id string, data map[string]interface{}) (*domain.Payment, []string) {
	var malformed []string

	amount, ok := decimalField(data, "amount")
	if !ok {
		malformed = append(malformed, "amount")
	}
	share, ok := decimalField(data, "dialoger_share")
	if !ok {
		malformed = append(malformed, "dialoger_share")
	}

	var timestamp time.Time
	if ts, ok := data["timestamp"].(time.Time); ok {
		timestamp = ts
	}

	hasFirstPayment, _ := data["has_first_payment"].(bool)

	return &domain.Payment{
		ID:              id,
		Amount:          amount,
		Type:            stringField(data, "type"),
		Method:          stringField(data, "method"),
		HasFirstPayment: hasFirstPayment,
		Interval:        stringField(data, "interval"),
		PaymentStatus:   stringField(data, "payment_status"),
		DialogerShare:   share,
		Timestamp:       timestamp,
		FirstName:       stringField(data, "first"),
		LastName:        stringField(data, "last"),
		DialogerID:      stringField(data, "dialoger"),
		LocationID:      stringField(data, "location"),
	}, malformed
}

func userFromData(id string, data map[string]interface{}) *domain.User {
	linked, _ := data["linked"].(bool)
	return &domain.User{
		ID:     id,
		First:  stringField(data, "first"),
		Last:   stringField(data, "last"),
		Role:   stringField(data, "role"),
		Linked: linked,
	}
}

func locationFromData(id string, data map[string]interface{}) *domain.Location {
	location := &domain.Location{
		ID:   id,
		Name: stringField(data, "name"),
	}
	if address, ok := data["address"].(map[string]interface{}); ok {
		location.Town = stringField(address, "town")
	}
	return location
}

func stringField(data map[string]interface{}, key string) string {
	s, _ := data[key].(string)
	return s
}

func decimalField(data map[string]interface{}, key string) (decimal.Decimal, bool) {
	switch v := data[key].(type) {
	case int64:
		return decimal.NewFromInt(v), true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(v), true
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, false
	}
}
