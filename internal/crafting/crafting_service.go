// Package crafting matches agent combine/work/apply actions against a
// recipe book loaded from YAML, grounded on
// original_source/hearth/services/crafting.py and tarsy's
// pkg/config/loader.go for the YAML-load idiom.
package crafting

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/codeready-toolchain/hearth/internal/domain"
)

// Result is the outcome of a crafting attempt.
type Result struct {
	Success        bool
	OutputItem     domain.Item
	ConsumedInputs []ConsumedInput
	Hints          []string
	Discoveries    []string
	Message        string
}

// ConsumedInput names an item type and quantity removed from inventory.
type ConsumedInput struct {
	ItemType string
	Quantity int
}

func okResult(output domain.Item, consumed []ConsumedInput, discoveries []string, message string) Result {
	return Result{Success: true, OutputItem: output, ConsumedInputs: consumed, Discoveries: discoveries, Message: message}
}

func failResult(message string, hints []string) Result {
	return Result{Success: false, Message: message, Hints: hints}
}

// Service looks up and applies recipes loaded from a YAML recipe book.
type Service struct {
	recipes []Recipe
}

// LoadFromFile reads recipes.yaml at path and builds a Service. A missing
// file yields an empty recipe book rather than an error, matching the
// Python service's behavior of silently having nothing to craft.
func LoadFromFile(path string) (*Service, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Service{}, nil
		}
		return nil, fmt.Errorf("read recipes file: %w", err)
	}

	var file recipeFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse recipes file: %w", err)
	}

	recipes := make([]Recipe, 0, len(file.Recipes))
	for _, r := range file.Recipes {
		recipes = append(recipes, r.toRecipe())
	}
	return &Service{recipes: recipes}, nil
}

// Recipes returns every loaded recipe.
func (s *Service) Recipes() []Recipe {
	return append([]Recipe(nil), s.recipes...)
}

func sortedCopy(items []string) []string {
	out := append([]string(nil), items...)
	sort.Strings(out)
	return out
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// FindRecipe returns the recipe matching action/inputs (order-independent)
// and, for "work" actions, technique.
func (s *Service) FindRecipe(action string, inputs []string, technique string) (Recipe, bool) {
	sortedInputs := sortedCopy(inputs)
	for _, r := range s.recipes {
		if r.Action != action {
			continue
		}
		if !stringSlicesEqual(sortedCopy(r.Inputs), sortedInputs) {
			continue
		}
		if action == "work" && r.Technique != technique {
			continue
		}
		return r, true
	}
	return Recipe{}, false
}

// FindApplyRecipe returns the apply recipe for a (tool, target) pair, where
// input order matters: inputs[0] is the tool, inputs[1] the target.
func (s *Service) FindApplyRecipe(tool, target string) (Recipe, bool) {
	for _, r := range s.recipes {
		if r.Action != "apply" || len(r.Inputs) != 2 {
			continue
		}
		if r.Inputs[0] == tool && r.Inputs[1] == target {
			return r, true
		}
	}
	return Recipe{}, false
}

// Hints suggests what might work given a partial or failed match.
func (s *Service) Hints(action string, inputs []string, technique string) []string {
	var hints []string
	sortedInputs := sortedCopy(inputs)
	inputSet := make(map[string]bool, len(sortedInputs))
	for _, i := range sortedInputs {
		inputSet[i] = true
	}

	for _, r := range s.recipes {
		if r.Action != action {
			continue
		}
		sortedRecipeInputs := sortedCopy(r.Inputs)
		recipeSet := make(map[string]bool, len(sortedRecipeInputs))
		for _, i := range sortedRecipeInputs {
			recipeSet[i] = true
		}

		overlap := 0
		var missing []string
		for i := range recipeSet {
			if inputSet[i] {
				overlap++
			} else {
				missing = append(missing, i)
			}
		}
		if overlap > 0 && overlap < len(recipeSet) && len(missing) > 0 {
			hints = append(hints, fmt.Sprintf("This combination might work with: %s", joinStrings(missing)))
		}

		if action == "work" && stringSlicesEqual(sortedRecipeInputs, sortedInputs) && r.Technique != technique {
			hints = append(hints, fmt.Sprintf("These materials respond to a different technique: %s", r.Technique))
		}
	}

	if len(hints) == 0 {
		switch {
		case action == "combine" && len(inputs) < 2:
			hints = append(hints, "Combining usually requires two materials")
		case action == "work" && technique == "":
			hints = append(hints, "Working materials requires a technique")
		case action == "apply" && len(inputs) < 2:
			hints = append(hints, "Applying requires a tool and a target")
		}
	}
	return hints
}

func joinStrings(items []string) string {
	out := ""
	for i, s := range items {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}

// craft produces the output item from a recipe.
func craft(r Recipe) domain.Item {
	if r.OutputStackable {
		return domain.Item{ItemType: r.Name, Properties: append([]string(nil), r.Properties...), Quantity: r.OutputQuantity}
	}
	return domain.UniqueItem(r.Name, r.Properties)
}

// TryCraft attempts to craft from action/inputs, combining FindRecipe, Hints
// and craft into one call.
func (s *Service) TryCraft(action string, inputs []string, technique string) Result {
	recipe, ok := s.FindRecipe(action, inputs, technique)
	if !ok {
		return failResult("No known way to do this.", s.Hints(action, inputs, technique))
	}

	item := craft(recipe)
	consumed := make([]ConsumedInput, 0, len(recipe.Inputs))
	for _, in := range recipe.Inputs {
		consumed = append(consumed, ConsumedInput{ItemType: in, Quantity: 1})
	}
	return okResult(item, consumed, recipe.Discoveries, recipe.Description)
}

// TryApply attempts to apply tool to target.
func (s *Service) TryApply(tool, target string) Result {
	recipe, ok := s.FindApplyRecipe(tool, target)
	if !ok {
		msg := fmt.Sprintf("The %s doesn't seem to do anything useful to the %s.", tool, target)
		return failResult(msg, s.Hints("apply", []string{tool, target}, ""))
	}

	item := craft(recipe)
	consumed := []ConsumedInput{{ItemType: target, Quantity: 1}}
	return okResult(item, consumed, recipe.Discoveries, recipe.Description)
}

// RecipesForAction returns every recipe for a given action type.
func (s *Service) RecipesForAction(action string) []Recipe {
	var out []Recipe
	for _, r := range s.recipes {
		if r.Action == action {
			out = append(out, r)
		}
	}
	return out
}

// RecipesUsingInput returns every recipe that consumes itemType.
func (s *Service) RecipesUsingInput(itemType string) []Recipe {
	var out []Recipe
	for _, r := range s.recipes {
		for _, in := range r.Inputs {
			if in == itemType {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// RecipesProducing returns every recipe whose output is itemType.
func (s *Service) RecipesProducing(itemType string) []Recipe {
	var out []Recipe
	for _, r := range s.recipes {
		if r.Name == itemType {
			out = append(out, r)
		}
	}
	return out
}
