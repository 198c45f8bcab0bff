package address

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmfresh/farmfresh-backend/pkg/db/dbtest"
	pkgerrors "github.com/farmfresh/farmfresh-backend/pkg/errors"
)

func sampleInput(detail string) Input {
	return Input{
		ContactName: "张三",
		Phone:       "13800138000",
		Province:    "浙江省",
		City:        "杭州市",
		District:    "西湖区",
		Detail:      detail,
	}
}

func newAddressService(t *testing.T) (Service, uuid.UUID) {
	t.Helper()
	client := dbtest.New(t)
	svc, err := NewService(NewRepository(client.DB()), client)
	require.NoError(t, err)
	return svc, dbtest.Customer(t, client.DB()).ID
}

func defaults(t *testing.T, svc Service, userID uuid.UUID) []uuid.UUID {
	t.Helper()
	rows, err := svc.List(context.Background(), userID)
	require.NoError(t, err)
	var ids []uuid.UUID
	for _, row := range rows {
		if row.IsDefault {
			ids = append(ids, row.ID)
		}
	}
	return ids
}

func TestFirstAddressBecomesDefault(t *testing.T) {
	svc, userID := newAddressService(t)

	first, err := svc.Create(context.Background(), userID, sampleInput("文三路 1 号"))
	require.NoError(t, err)
	assert.True(t, first.IsDefault)
	assert.Equal(t, "浙江省 杭州市 西湖区 文三路 1 号", first.FullAddress)

	second, err := svc.Create(context.Background(), userID, sampleInput("文三路 2 号"))
	require.NoError(t, err)
	assert.False(t, second.IsDefault)
	assert.Equal(t, []uuid.UUID{first.ID}, defaults(t, svc, userID))
}

func TestSingleDefault(t *testing.T) {
	svc, userID := newAddressService(t)
	ctx := context.Background()
	first, err := svc.Create(ctx, userID, sampleInput("A"))
	require.NoError(t, err)

	in := sampleInput("B")
	in.IsDefault = true
	second, err := svc.Create(ctx, userID, in)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{second.ID}, defaults(t, svc, userID))

	// unsetting the default on the default address keeps it
	_, err = svc.Update(ctx, userID, second.ID, sampleInput("B2"))
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{second.ID}, defaults(t, svc, userID))

	in = sampleInput("A2")
	in.IsDefault = true
	_, err = svc.Update(ctx, userID, first.ID, in)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{first.ID}, defaults(t, svc, userID))
}

func TestDeletingDefaultPromotesAnother(t *testing.T) {
	svc, userID := newAddressService(t)
	ctx := context.Background()
	first, err := svc.Create(ctx, userID, sampleInput("A"))
	require.NoError(t, err)
	second, err := svc.Create(ctx, userID, sampleInput("B"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, userID, first.ID))
	assert.Equal(t, []uuid.UUID{second.ID}, defaults(t, svc, userID))

	err = svc.Delete(ctx, userID, first.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestAddressesAreOwnerScoped(t *testing.T) {
	svc, userID := newAddressService(t)
	ctx := context.Background()
	addr, err := svc.Create(ctx, userID, sampleInput("A"))
	require.NoError(t, err)

	_, err = svc.Get(ctx, uuid.New(), addr.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestIncompleteAddress(t *testing.T) {
	svc, userID := newAddressService(t)
	in := sampleInput("  ")
	in.Phone = ""

	_, err := svc.Create(context.Background(), userID, in)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}
