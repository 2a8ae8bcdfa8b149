package crafting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testRecipesYAML = `
recipes:
  - name: axe
    action: combine
    inputs: [wood, stone]
    output_stackable: false
    description: A sturdy hand axe.
  - name: plank
    action: work
    inputs: [wood]
    technique: carving
    output_quantity: 2
    output_stackable: true
`

func loadTestService(t *testing.T) *Service {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recipes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testRecipesYAML), 0o644))
	svc, err := LoadFromFile(path)
	require.NoError(t, err)
	return svc
}

// A matching (recipe, inputs) pair consumes exactly the recipe's inputs
// and produces exactly one output record.
func TestTryCraftConsumesInputsAndProducesOneOutput(t *testing.T) {
	svc := loadTestService(t)

	result := svc.TryCraft("combine", []string{"stone", "wood"}, "")
	require.True(t, result.Success)
	require.Equal(t, "axe", result.OutputItem.ItemType)
	require.Equal(t, 1, result.OutputItem.Quantity, "a non-stackable output is always exactly one unique item")
	require.ElementsMatch(t, []ConsumedInput{{ItemType: "wood", Quantity: 1}, {ItemType: "stone", Quantity: 1}}, result.ConsumedInputs)
}

// A stackable recipe's output_quantity is honored verbatim as the single
// produced record's quantity.
func TestTryCraftStackableOutputUsesDeclaredQuantity(t *testing.T) {
	svc := loadTestService(t)

	result := svc.TryCraft("work", []string{"wood"}, "carving")
	require.True(t, result.Success)
	require.Equal(t, "plank", result.OutputItem.ItemType)
	require.Equal(t, 2, result.OutputItem.Quantity)
}

func TestTryCraftNoMatchFailsWithHint(t *testing.T) {
	svc := loadTestService(t)

	result := svc.TryCraft("combine", []string{"wood"}, "")
	require.False(t, result.Success)
	require.NotEmpty(t, result.Hints)
}

func TestFindRecipeIsOrderIndependent(t *testing.T) {
	svc := loadTestService(t)

	_, ok := svc.FindRecipe("combine", []string{"wood", "stone"}, "")
	require.True(t, ok)
	_, ok = svc.FindRecipe("combine", []string{"stone", "wood"}, "")
	require.True(t, ok)
}
