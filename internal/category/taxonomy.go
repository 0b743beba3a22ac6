package category

// Category is a node of the food taxonomy.
type Category string

const (
	Beverages     Category = "Beverages"
	Supplements   Category = "Supplements"
	Desserts      Category = "Desserts & Sweets"
	Seafood       Category = "Seafood"
	MeatPoultry   Category = "Meat & Poultry"
	DairyEggs     Category = "Dairy & Eggs"
	FatsOils      Category = "Fats & Oils"
	Legumes       Category = "Legumes"
	NutsSeeds     Category = "Nuts & Seeds"
	Fruits        Category = "Fruits"
	Vegetables    Category = "Vegetables"
	Grains        Category = "Grains, Bread & Pasta"
	Snacks        Category = "Snacks"
	Condiments    Category = "Condiments & Sauces"
	PreparedMeals Category = "Prepared Meals"
	Other         Category = "Other"
)

// bucket pairs a category with its keywords. Keywords are folded text;
// multi-word keywords are matched before any single word.
type bucket struct {
	category Category
	keywords []string
}

// buckets are evaluated in order; the first match wins.
var buckets = []bucket{
	{Beverages, []string{
		"coffee", "tea", "soda", "cola", "water", "juice", "beer", "wine", "vodka", "whiskey", "whisky",
		"rum", "gin", "tequila", "liquor", "cider", "lemonade", "smoothie", "latte", "espresso", "cappuccino",
		"kombucha", "beverage", "drink", "sports drink", "energy drink", "almond milk", "oat milk", "soy milk",
		"chocolate milk", "hot chocolate", "milkshake",
	}},
	{Supplements, []string{
		"supplement", "multivitamin", "vitamin", "capsule", "tablet", "creatine", "collagen", "whey",
		"protein powder", "fish oil", "electrolyte",
	}},
	{Desserts, []string{
		"cake", "cookie", "brownie", "candy", "chocolate", "pudding", "donut", "doughnut", "cupcake", "pastry",
		"pie", "tart", "fudge", "marshmallow", "caramel", "cheesecake", "frosting", "custard", "gelato", "sorbet",
		"ice cream", "frozen yogurt", "dessert",
	}},
	{Seafood, []string{
		"salmon", "tuna", "shrimp", "prawn", "cod", "tilapia", "crab", "lobster", "fish", "sardine", "anchovy",
		"mackerel", "trout", "halibut", "scallop", "clam", "oyster", "mussel", "squid", "octopus", "catfish",
		"pollock", "haddock", "seafood",
	}},
	{MeatPoultry, []string{
		"chicken", "beef", "pork", "turkey", "lamb", "steak", "bacon", "ham", "sausage", "veal", "duck",
		"venison", "bison", "meat", "jerky", "salami", "pepperoni", "brisket", "ribs", "prosciutto", "chorizo",
		"meatball", "hot dog", "ground beef",
	}},
	{DairyEggs, []string{
		"milk", "cheese", "yogurt", "yoghurt", "cream", "egg", "kefir", "cheddar", "mozzarella", "parmesan",
		"ricotta", "feta", "brie", "cottage cheese", "sour cream", "egg white",
	}},
	{FatsOils, []string{
		"oil", "butter", "margarine", "lard", "ghee", "shortening", "tallow", "olive oil",
	}},
	{Legumes, []string{
		"bean", "lentil", "chickpea", "pea", "tofu", "tempeh", "edamame", "hummus", "soybean", "legume",
	}},
	{NutsSeeds, []string{
		"almond", "walnut", "cashew", "pecan", "pistachio", "peanut", "hazelnut", "macadamia", "seed", "chia",
		"flax", "flaxseed", "sesame", "nut", "peanut butter", "almond butter", "sunflower seed", "pumpkin seed",
	}},
	{Fruits, []string{
		"apple", "banana", "orange", "grape", "strawberry", "blueberry", "raspberry", "blackberry", "berry",
		"mango", "pineapple", "peach", "pear", "plum", "cherry", "watermelon", "melon", "kiwi", "lemon", "lime",
		"grapefruit", "apricot", "avocado", "date", "fig", "raisin", "cranberry", "pomegranate", "papaya",
		"coconut", "fruit",
	}},
	{Vegetables, []string{
		"broccoli", "spinach", "kale", "lettuce", "carrot", "tomato", "potato", "onion", "pepper", "cucumber",
		"celery", "cabbage", "cauliflower", "zucchini", "asparagus", "mushroom", "corn", "beet", "radish",
		"squash", "eggplant", "arugula", "chard", "collard", "garlic", "leek", "vegetable", "veggie", "greens",
		"sweet potato", "brussels sprout", "green bean",
	}},
	{Grains, []string{
		"bread", "rice", "pasta", "oat", "oatmeal", "cereal", "wheat", "flour", "quinoa", "barley", "noodle",
		"spaghetti", "tortilla", "bagel", "couscous", "bun", "granola", "macaroni", "grain", "cornmeal", "rye",
		"bulgur", "millet", "pita", "croissant", "muffin", "pancake", "waffle",
	}},
	{Snacks, []string{
		"chip", "crisp", "pretzel", "popcorn", "cracker", "snack", "puffs", "trail mix", "granola bar",
		"protein bar", "rice cake", "potato chip", "tortilla chip",
	}},
	{Condiments, []string{
		"ketchup", "mustard", "mayonnaise", "mayo", "sauce", "dressing", "salsa", "vinegar", "relish", "gravy",
		"pesto", "honey", "syrup", "jam", "jelly", "seasoning", "spice", "salt", "condiment", "hot sauce",
		"soy sauce", "wine vinegar", "barbecue sauce", "bbq sauce",
	}},
}

// compositeWords mark prepared dishes whose category follows their first ingredient.
var compositeWords = []string{
	"sandwich", "soup", "salad", "wrap", "burrito", "pizza", "stew", "casserole", "bowl",
}

// All returns every category in evaluation order, followed by the fallbacks.
func All() []Category {
	out := make([]Category, 0, len(buckets)+2)
	for _, b := range buckets {
		out = append(out, b.category)
	}
	return append(out, PreparedMeals, Other)
}

var aliases = map[string]Category{
	"beverage":           Beverages,
	"beverages":          Beverages,
	"drink":              Beverages,
	"drinks":             Beverages,
	"supplement":         Supplements,
	"supplements":        Supplements,
	"dessert":            Desserts,
	"desserts":           Desserts,
	"sweets":             Desserts,
	"desserts sweets":    Desserts,
	"seafood":            Seafood,
	"fish":               Seafood,
	"fish seafood":       Seafood,
	"meat":               MeatPoultry,
	"meats":              MeatPoultry,
	"poultry":            MeatPoultry,
	"meat poultry":       MeatPoultry,
	"dairy":              DairyEggs,
	"eggs":               DairyEggs,
	"dairy eggs":         DairyEggs,
	"fat":                FatsOils,
	"fats":               FatsOils,
	"oils":               FatsOils,
	"fats oils":          FatsOils,
	"legume":             Legumes,
	"legumes":            Legumes,
	"beans":              Legumes,
	"nuts":               NutsSeeds,
	"seeds":              NutsSeeds,
	"nuts seeds":         NutsSeeds,
	"fruit":              Fruits,
	"fruits":             Fruits,
	"vegetable":          Vegetables,
	"vegetables":         Vegetables,
	"veggies":            Vegetables,
	"grain":              Grains,
	"grains":             Grains,
	"bread":              Grains,
	"pasta":              Grains,
	"grains bread pasta": Grains,
	"snack":              Snacks,
	"snacks":             Snacks,
	"condiment":          Condiments,
	"condiments":         Condiments,
	"sauces":             Condiments,
	"condiments sauces":  Condiments,
	"prepared meal":      PreparedMeals,
	"prepared meals":     PreparedMeals,
	"meals":              PreparedMeals,
	"other":              Other,
}
