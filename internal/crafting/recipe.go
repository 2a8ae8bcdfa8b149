package crafting

// Recipe describes how materials transform through a crafting action.
// Loaded from YAML and immutable once parsed.
type Recipe struct {
	Name   string `yaml:"name"` // output item type
	Action string `yaml:"action"`
	Inputs []string `yaml:"inputs"`

	Technique string `yaml:"technique,omitempty"` // for work actions

	OutputQuantity  int      `yaml:"output_quantity,omitempty"`
	OutputStackable bool     `yaml:"output_stackable"`
	Properties      []string `yaml:"properties,omitempty"`

	Discoveries []string `yaml:"discoveries,omitempty"`
	Description string   `yaml:"description,omitempty"`
}

// recipeFile is the top-level shape of recipes.yaml.
type recipeFile struct {
	Recipes []rawRecipe `yaml:"recipes"`
}

// rawRecipe captures output_stackable's YAML default of true, which a plain
// bool field cannot distinguish from an explicit false when using
// yaml.v3's zero-value unmarshal behavior.
type rawRecipe struct {
	Name            string   `yaml:"name"`
	Action          string   `yaml:"action"`
	Inputs          []string `yaml:"inputs"`
	Technique       string   `yaml:"technique"`
	OutputQuantity  int      `yaml:"output_quantity"`
	OutputStackable *bool    `yaml:"output_stackable"`
	Properties      []string `yaml:"properties"`
	Discoveries     []string `yaml:"discoveries"`
	Description     string  `yaml:"description"`
}

func (r rawRecipe) toRecipe() Recipe {
	qty := r.OutputQuantity
	if qty == 0 {
		qty = 1
	}
	stackable := true
	if r.OutputStackable != nil {
		stackable = *r.OutputStackable
	}
	return Recipe{
		Name:            r.Name,
		Action:          r.Action,
		Inputs:          r.Inputs,
		Technique:       r.Technique,
		OutputQuantity:  qty,
		OutputStackable: stackable,
		Properties:      r.Properties,
		Discoveries:     r.Discoveries,
		Description:     r.Description,
	}
}
