package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sublimeminds/mindful-bot-compass-sub016/internal/domain"
)

// MockDB is a mock implementation of DB
type MockDB struct {
	mock.Mock
}

func (m *MockDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	called := m.Called(append([]any{ctx, sql}, args...)...)
	return pgconn.NewCommandTag(called.String(0)), called.Error(1)
}

func (m *MockDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	called := m.Called(append([]any{ctx, sql}, args...)...)
	return called.Get(0).(pgx.Row)
}

// fakeRow fills *string destinations in order
type fakeRow struct {
	values []*string
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		*(d.(**string)) = r.values[i]
	}
	return nil
}

func strPtr(s string) *string { return &s }

func TestPreferenceRepository_GetQuietHoursOverride(t *testing.T) {
	tests := []struct {
		name    string
		row     fakeRow
		want    *domain.QuietHours
		wantErr bool
	}{
		{
			name: "override present",
			row:  fakeRow{values: []*string{strPtr("23:00"), strPtr("07:30")}},
			want: &domain.QuietHours{Start: "23:00", End: "07:30"},
		},
		{
			name: "no row",
			row:  fakeRow{err: pgx.ErrNoRows},
		},
		{
			name: "null window",
			row:  fakeRow{values: []*string{nil, nil}},
		},
		{
			name:    "query failure",
			row:     fakeRow{err: errors.New("connection reset")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := new(MockDB)
			db.On("QueryRow", mock.Anything, mock.Anything, "user-1").Return(tt.row)
			repo := NewPreferenceRepository(db, zap.NewNop())

			got, err := repo.GetQuietHoursOverride(context.Background(), "user-1")

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			db.AssertExpectations(t)
		})
	}
}

func TestPreferenceRepository_SetQuietHoursOverride(t *testing.T) {
	db := new(MockDB)
	db.On("Exec", mock.Anything, mock.Anything, "user-1",
		mock.MatchedBy(func(s *string) bool { return s != nil && *s == "21:00" }),
		mock.MatchedBy(func(s *string) bool { return s != nil && *s == "06:00" }),
	).Return("INSERT 0 1", nil)
	repo := NewPreferenceRepository(db, zap.NewNop())

	err := repo.SetQuietHoursOverride(context.Background(), "user-1", &domain.QuietHours{Start: "21:00", End: "06:00"})

	require.NoError(t, err)
	db.AssertExpectations(t)
}

func TestPreferenceRepository_SetQuietHoursOverrideError(t *testing.T) {
	db := new(MockDB)
	db.On("Exec", mock.Anything, mock.Anything, "user-1", mock.Anything, mock.Anything).
		Return("", errors.New("read only"))
	repo := NewPreferenceRepository(db, zap.NewNop())

	err := repo.SetQuietHoursOverride(context.Background(), "user-1", nil)

	assert.Error(t, err)
}

func TestPreferenceRepository_InitSchema(t *testing.T) {
	db := new(MockDB)
	db.On("Exec", mock.Anything, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "notification_preferences")
	})).Return("CREATE TABLE", nil)

	require.NoError(t, NewPreferenceRepository(db, zap.NewNop()).InitSchema(context.Background()))
	db.AssertExpectations(t)
}
