// Package patients is the relational system of record for patient intake.
package patients

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"planrec/db"
	"planrec/model"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

var (
	ErrNotFound = errors.New("patient not found")
	ErrInvalid  = errors.New("invalid patient")
)

// Input is the intake form. Field names on the wire match the stored columns.
type Input struct {
	Name              string              `json:"name" validate:"required"`
	Age               int                 `json:"age" validate:"gte=0,lte=130"`
	Gender            string              `json:"gender" validate:"required"`
	State             string              `json:"state" validate:"required"`
	Occupation        string              `json:"occupation"`
	Smoker            bool                `json:"smoking_status"`
	ActivityLevel     model.ActivityLevel `json:"physical_activity_level" validate:"required,oneof=sedentary moderate active"`
	MedicalConditions []string            `json:"medical_conditions" validate:"dive,required"`
	TravelCoverage    bool                `json:"travel_coverage_needed"`
	FamilyCoverage    bool                `json:"family_coverage"`
	BudgetTier        model.BudgetTier    `json:"budget_category" validate:"omitempty,oneof=Bronze Silver Gold Platinum"`
	HasOffspring      bool                `json:"has_offspring"`
	Married           bool                `json:"is_married"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the intake form. Errors wrap ErrInvalid.
func (in Input) Validate() error {
	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, len(verrs))
			for i, fe := range verrs {
				fields[i] = fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
			}
			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(fields, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Store reads and writes patients through the generated query layer.
type Store struct {
	q      *db.Queries
	logger *slog.Logger
}

// NewStore returns a Store over conn, usually a *pgxpool.Pool.
func NewStore(conn db.DBTX, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{q: db.New(conn), logger: logger}
}

// Create validates in and inserts a new patient.
func (s *Store) Create(ctx context.Context, in Input) (model.Patient, error) {
	if err := in.Validate(); err != nil {
		return model.Patient{}, err
	}

	conditions := in.MedicalConditions
	if conditions == nil {
		conditions = []string{}
	}

	row, err := s.q.CreatePatient(ctx, db.CreatePatientParams{
		Name:                  strings.TrimSpace(in.Name),
		Age:                   int32(in.Age),
		Gender:                strings.TrimSpace(in.Gender),
		State:                 strings.TrimSpace(in.State),
		Occupation:            textOrNull(in.Occupation),
		SmokingStatus:         in.Smoker,
		PhysicalActivityLevel: string(in.ActivityLevel),
		MedicalConditions:     conditions,
		TravelCoverageNeeded:  in.TravelCoverage,
		FamilyCoverage:        in.FamilyCoverage,
		BudgetCategory:        textOrNull(string(in.BudgetTier)),
		HasOffspring:          in.HasOffspring,
		IsMarried:             in.Married,
	})
	if err != nil {
		return model.Patient{}, fmt.Errorf("insert patient: %w", err)
	}

	s.logger.Info("patient created", "patient_id", row.ID, "state", row.State)
	return fromRow(row), nil
}

// Get returns the patient with the given id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id int64) (model.Patient, error) {
	row, err := s.q.GetPatient(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Patient{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		return model.Patient{}, fmt.Errorf("get patient %d: %w", id, err)
	}
	return fromRow(row), nil
}

func fromRow(r db.Patient) model.Patient {
	return model.Patient{
		ID:                r.ID,
		Name:              r.Name,
		Age:               int(r.Age),
		Gender:            r.Gender,
		State:             r.State,
		Occupation:        r.Occupation.String,
		Smoker:            r.SmokingStatus,
		ActivityLevel:     model.ActivityLevel(r.PhysicalActivityLevel),
		MedicalConditions: r.MedicalConditions,
		TravelCoverage:    r.TravelCoverageNeeded,
		FamilyCoverage:    r.FamilyCoverage,
		BudgetTier:        model.BudgetTier(r.BudgetCategory.String),
		HasOffspring:      r.HasOffspring,
		Married:           r.IsMarried,
	}
}

func textOrNull(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: strings.ToValidUTF8(s, " "), Valid: true}
}
