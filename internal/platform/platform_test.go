package platform

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/listpilot/api/schemas"
)

// MockRunner records every instruction handed to the loop.
type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context, surface schemas.Surface, instruction string, maxCycles int) error {
	args := m.Called(ctx, surface, instruction, maxCycles)
	return args.Error(0)
}

func (m *MockRunner) instructions() []string {
	var out []string
	for _, c := range m.Calls {
		out = append(out, c.Arguments.String(2))
	}
	return out
}

// fakePage satisfies Page; only Navigate is exercised directly.
type fakePage struct {
	schemas.Surface
	visited []string
	navErr  error
}

func (f *fakePage) Navigate(ctx context.Context, url string) error {
	f.visited = append(f.visited, url)
	return f.navErr
}

func newAmazon(t *testing.T) (Marketplace, *MockRunner) {
	runner := new(MockRunner)
	m, err := Lookup("Amazon", runner, 7, zap.NewNop())
	require.NoError(t, err)
	return m, runner
}

func TestLookup(t *testing.T) {
	for _, key := range Keys() {
		m, err := Lookup("  "+strings.ToUpper(key)+" ", new(MockRunner), 5, zap.NewNop())
		require.NoError(t, err, key)
		assert.NotEmpty(t, m.Name())
	}

	_, err := Lookup("etsy", new(MockRunner), 5, zap.NewNop())
	require.Error(t, err)
	assert.Equal(t, "unsupported platform 'etsy'. Choose from: amazon, myntra, flipkart, shopify", err.Error())
}

func TestProfile(t *testing.T) {
	m, _ := newAmazon(t)
	assert.Equal(t, "amazon_seller_central", m.Profile())
	assert.Equal(t, "Amazon Seller Central", m.Name())
}

func TestLogin(t *testing.T) {
	m, runner := newAmazon(t)
	page := &fakePage{}
	runner.On("Run", mock.Anything, page, mock.Anything, 7).Return(nil)

	err := m.Login(context.Background(), page, schemas.Credentials{Username: "ops@shop.in", Password: "hunter2"})
	require.NoError(t, err)

	assert.Equal(t, []string{"https://sellercentral.amazon.com"}, page.visited)
	require.Len(t, runner.instructions(), 1)
	instruction := runner.instructions()[0]
	assert.Contains(t, instruction, "email/username=ops@shop.in")
	assert.Contains(t, instruction, "password=<provided in secure manager>")
	assert.NotContains(t, instruction, "hunter2")
}

func TestLogin_NavigationFailure(t *testing.T) {
	m, runner := newAmazon(t)
	page := &fakePage{navErr: errors.New("net::ERR_NAME_NOT_RESOLVED")}

	err := m.Login(context.Background(), page, schemas.Credentials{Username: "u"})
	require.Error(t, err)
	runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateListing(t *testing.T) {
	m, runner := newAmazon(t)
	page := &fakePage{}
	runner.On("Run", mock.Anything, page, mock.Anything, 7).Return(nil)

	product := schemas.Product{"sku": "RING1", "title": "Rose Gold Ring", "price": 799.0}
	err := m.CreateListing(context.Background(), page, product, []string{"/img/RING1/a.jpg", "/img/RING1/b.jpg"})
	require.NoError(t, err)

	got := runner.instructions()
	require.Len(t, got, 4, "create, two uploads, save")
	assert.Equal(t, `Create a new product listing on Amazon Seller Central with product payload: {"price":799,"sku":"RING1","title":"Rose Gold Ring"}. Select the best matching category and fill all mandatory fields naturally.`, got[0])
	assert.Equal(t, "Upload this product image on Amazon Seller Central: /img/RING1/a.jpg", got[1])
	assert.Equal(t, "Upload this product image on Amazon Seller Central: /img/RING1/b.jpg", got[2])
	assert.Equal(t, "Click save/publish on Amazon Seller Central and verify success message.", got[3])
}

func TestEditListing(t *testing.T) {
	testCases := []struct {
		sku  string
		want string
	}{
		{"SKU123", "Find SKU SKU123 on Amazon Seller Central and apply updates: {\"price\":799}."},
		{schemas.UnspecifiedSKU, "Find the listing identified by the provided command context on Amazon Seller Central"},
		{"", "Find the listing identified by the provided command context on"},
	}
	for _, tc := range testCases {
		t.Run(tc.sku, func(t *testing.T) {
			m, runner := newAmazon(t)
			page := &fakePage{}
			runner.On("Run", mock.Anything, page, mock.Anything, 7).Return(nil)

			require.NoError(t, m.EditListing(context.Background(), page, map[string]interface{}{"price": 799}, tc.sku))
			got := runner.instructions()
			require.Len(t, got, 2, "edit then save")
			assert.True(t, strings.HasPrefix(got[0], tc.want), got[0])
		})
	}
}

func TestStepFailureStopsSequence(t *testing.T) {
	m, runner := newAmazon(t)
	page := &fakePage{}
	boom := errors.New("could not complete task within 7 cycles (last risk: none)")
	runner.On("Run", mock.Anything, page, mock.MatchedBy(func(s string) bool {
		return strings.HasPrefix(s, "Create")
	}), 7).Return(boom)

	err := m.CreateListing(context.Background(), page, schemas.Product{"sku": "A1"}, []string{"/x.jpg"})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "create_listing on Amazon Seller Central")
	assert.Len(t, runner.instructions(), 1)
}
