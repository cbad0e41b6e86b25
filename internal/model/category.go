// Package model はドメインモデルを定義する。
package model

// Category はアイテムが属する固定6種のカテゴリを表す。
type Category string

const (
	// CategoryRestaurants はレストランのカテゴリ。
	CategoryRestaurants Category = "restaurants"
	// CategoryBars はバーのカテゴリ。
	CategoryBars Category = "bars"
	// CategoryCafes はカフェのカテゴリ。
	CategoryCafes Category = "cafes"
	// CategoryMovies は映画のカテゴリ。
	CategoryMovies Category = "movies"
	// CategoryShows はテレビ番組のカテゴリ。
	CategoryShows Category = "shows"
	// CategoryDateIdeas はデートアイデアのカテゴリ。
	CategoryDateIdeas Category = "date-ideas"
)

// allCategories は全カテゴリの固定順リスト。
// キャッシュのウォームアップやバリデーションでこの順序が使用される。
var allCategories = []Category{
	CategoryRestaurants,
	CategoryBars,
	CategoryCafes,
	CategoryMovies,
	CategoryShows,
	CategoryDateIdeas,
}

// Categories は全カテゴリを固定順で返す。
// 返されるスライスは呼び出しごとにコピーされる。
func Categories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

// CategoryInfo はカテゴリの表示用メタデータを表す。
// 動作には影響しないプレゼンテーション情報のみを保持する。
type CategoryInfo struct {
	ID          Category `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Icon        string   `json:"icon"`
}

// categoryInfos はカテゴリごとの表示用メタデータ。
var categoryInfos = map[Category]CategoryInfo{
	CategoryRestaurants: {ID: CategoryRestaurants, Name: "Restaurants", Description: "Places to eat", Icon: "🍽️"},
	CategoryBars:        {ID: CategoryBars, Name: "Bars", Description: "Places to drink", Icon: "🍸"},
	CategoryCafes:       {ID: CategoryCafes, Name: "Cafes & Coffee", Description: "Coffee shops and cafes", Icon: "☕"},
	CategoryMovies:      {ID: CategoryMovies, Name: "Movies", Description: "Films to watch", Icon: "🎬"},
	CategoryShows:       {ID: CategoryShows, Name: "Shows", Description: "TV shows and series", Icon: "📺"},
	CategoryDateIdeas:   {ID: CategoryDateIdeas, Name: "Date Ideas", Description: "Fun activities for couples", Icon: "❤️"},
}

// Info はカテゴリの表示用メタデータを返す。
func (c Category) Info() CategoryInfo {
	return categoryInfos[c]
}

// Valid はカテゴリが固定6種のいずれかであるかを返す。
func (c Category) Valid() bool {
	_, ok := categoryInfos[c]
	return ok
}

// ParseCategory は文字列をCategoryに変換する。
// 空文字列または未知の値の場合はAPIErrorを返す。
func ParseCategory(s string) (Category, error) {
	if s == "" {
		return "", NewCategoryRequiredError()
	}
	c := Category(s)
	if !c.Valid() {
		return "", NewInvalidCategoryError(s)
	}
	return c, nil
}
