package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalog = `
categories:
  - name: Coffee
    products:
      - id: 1
        name: Latte
        price: 100
        points: 10
        recommended: true
      - id: 2
        name: Americano
        price: 85
        points: 8
  - name: Pastries
    products:
      - id: 3
        name: Muffin
        price: 75
        points: 8
`

func TestParse(t *testing.T) {
	c, err := Parse([]byte(testCatalog))
	require.NoError(t, err)

	p, err := c.Product(1)
	require.NoError(t, err)
	assert.Equal(t, "Latte", p.Name)
	assert.Equal(t, 100.0, p.Price)
	assert.Equal(t, 10, p.Points)
	assert.True(t, p.Recommended)

	byName, err := c.ProductByName("Muffin")
	require.NoError(t, err)
	assert.Equal(t, int64(3), byName.ID)

	assert.Len(t, c.Categories(), 2)
}

func TestParse_UnknownProduct(t *testing.T) {
	c, err := Parse([]byte(testCatalog))
	require.NoError(t, err)

	_, err = c.Product(99)
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = c.ProductByName("Flat White")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestParse_DuplicateID(t *testing.T) {
	bad := `
categories:
  - name: Coffee
    products:
      - id: 1
        name: Latte
        price: 100
        points: 10
      - id: 1
        name: Mocha
        price: 110
        points: 11
`
	_, err := Parse([]byte(bad))
	assert.Error(t, err)
}

func TestParse_InvalidID(t *testing.T) {
	bad := `
categories:
  - name: Coffee
    products:
      - id: 0
        name: Latte
        price: 100
        points: 10
`
	_, err := Parse([]byte(bad))
	assert.Error(t, err)
}
