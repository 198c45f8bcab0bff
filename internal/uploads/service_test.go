package uploads

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmfresh/farmfresh-backend/pkg/auth"
	"github.com/farmfresh/farmfresh-backend/pkg/enums"
	pkgerrors "github.com/farmfresh/farmfresh-backend/pkg/errors"
)

// 1x1 transparent png
var tinyPNG, _ = base64.StdEncoding.DecodeString("iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII=")

type recordingUploader struct {
	object      string
	contentType string
	body        []byte
}

func (r *recordingUploader) Upload(_ context.Context, object, contentType string, body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	r.object, r.contentType, r.body = object, contentType, data
	return "https://cdn.example.com/bucket/" + object, nil
}

func farmerActor() auth.Principal {
	farm := uuid.New()
	return auth.Principal{UserID: uuid.New(), Role: enums.RoleFarmer, FarmerProfileID: &farm}
}

func TestUploadStoresSniffedImage(t *testing.T) {
	store := &recordingUploader{}
	svc, err := NewService(store, 1<<20, nil)
	require.NoError(t, err)
	actor := farmerActor()

	res, err := svc.Upload(context.Background(), actor, PurposeProduct, bytes.NewReader(tinyPNG))
	require.NoError(t, err)
	assert.Equal(t, "image/png", res.ContentType)
	assert.Equal(t, "image/png", store.contentType)
	assert.True(t, strings.HasPrefix(res.Object, "product/"+actor.UserID.String()+"/"))
	assert.True(t, strings.HasSuffix(res.Object, ".png"))
	assert.Equal(t, "https://cdn.example.com/bucket/"+res.Object, res.URL)
	assert.Equal(t, tinyPNG, store.body)
}

func TestUploadRejects(t *testing.T) {
	svc, err := NewService(&recordingUploader{}, 32, nil)
	require.NoError(t, err)
	customer := auth.Principal{UserID: uuid.New(), Role: enums.RoleCustomer}

	cases := []struct {
		name    string
		actor   auth.Principal
		purpose Purpose
		body    []byte
		code    pkgerrors.Code
	}{
		{"empty", farmerActor(), PurposeProduct, nil, pkgerrors.CodeValidation},
		{"not an image", farmerActor(), PurposeProduct, []byte("%PDF-1.4\n%âãÏÓ\n"), pkgerrors.CodeValidation},
		{"too large", farmerActor(), PurposeProduct, bytes.Repeat([]byte{0xff}, 33), pkgerrors.CodeValidation},
		{"customer product image", customer, PurposeProduct, tinyPNG, pkgerrors.CodeForbidden},
		{"customer story image", customer, PurposeStory, tinyPNG, pkgerrors.CodeForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Upload(context.Background(), tc.actor, tc.purpose, bytes.NewReader(tc.body))
			require.Error(t, err)
			assert.Equal(t, tc.code, pkgerrors.CodeOf(err))
		})
	}
}

func TestCustomerMayAttachAfterSaleEvidence(t *testing.T) {
	svc, err := NewService(&recordingUploader{}, 1<<20, nil)
	require.NoError(t, err)
	customer := auth.Principal{UserID: uuid.New(), Role: enums.RoleCustomer}

	res, err := svc.Upload(context.Background(), customer, PurposeAfterSale, bytes.NewReader(tinyPNG))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Object, "after_sale/"))
}

func TestParsePurpose(t *testing.T) {
	p, ok := ParsePurpose("")
	assert.True(t, ok)
	assert.Equal(t, PurposeProduct, p)

	p, ok = ParsePurpose(" Story ")
	assert.True(t, ok)
	assert.Equal(t, PurposeStory, p)

	_, ok = ParsePurpose("avatar")
	assert.False(t, ok)
}
