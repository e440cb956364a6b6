package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// itemSkipPatterns drop lines that are not product entries: totals, tax,
// dates, times, boilerplate, thank-you phrases, point/coupon mentions.
var itemSkipPatterns = []*regexp.Regexp{
	regexp.MustCompile(`合計|小計|お会計|お支払|釣り?銭|お釣り|お預り|お預かり`),
	regexp.MustCompile(`税|(?i:tax)`),
	regexp.MustCompile(`\d{4}[/\-年]\d{1,2}[/\-月]\d{1,2}|\d{1,2}/\d{1,2}/\d{2,4}`),
	regexp.MustCompile(`\d{1,2}:\d{2}`),
	regexp.MustCompile(`領収書|レシート|明細|店|(?i:receipt)`),
	regexp.MustCompile(`ありがとう|(?i:thank\s*you)`),
	regexp.MustCompile(`ポイント|クーポン|(?i:point|coupon)`),
}

// itemShapes are tried per line, first match wins. Quantity shapes come
// before the plain name+price shape so "2×300" is not read as a price.
var itemShapes = []struct {
	re       *regexp.Regexp
	qtyGroup int // 0 when the shape has no quantity group
}{
	// name qty × price
	{re: regexp.MustCompile(`^(.{1,40}?)\s*(\d{1,3})\s*[×xX*]\s*[¥￥]?([0-9][0-9,]*)円?$`), qtyGroup: 2},
	// name × qty price
	{re: regexp.MustCompile(`^(.{1,40}?)\s*[×xX]\s*(\d{1,3})\s+[¥￥]?([0-9][0-9,]*)円?$`), qtyGroup: 2},
	// name price
	{re: regexp.MustCompile(`^(.{1,40}?)\s+[¥￥]?([0-9][0-9,]*)円?$`), qtyGroup: 0},
	// name¥price with no space
	{re: regexp.MustCompile(`^(.{1,40}?)[¥￥]([0-9][0-9,]*)$`), qtyGroup: 0},
}

// itemCategoryKeywords map item-name keywords to a coarse category label.
// First matching keyword wins; entry order is significant.
var itemCategoryKeywords = []struct {
	category string
	keywords []string
}{
	{"食品", []string{"弁当", "おにぎり", "パン", "サンドイッチ", "牛乳", "卵", "野菜", "肉", "魚", "米", "麺"}},
	{"飲料", []string{"コーヒー", "お茶", "紅茶", "ジュース", "水", "ビール", "酒", "ドリンク"}},
	{"事務用品", []string{"ペン", "ノート", "ファイル", "コピー", "用紙", "インク", "封筒", "付箋"}},
	{"清掃用品", []string{"洗剤", "スポンジ", "ゴミ袋", "漂白"}},
	{"日用品", []string{"ティッシュ", "トイレット", "電池", "シャンプー", "石鹸", "歯磨"}},
	{"書籍", []string{"本", "雑誌", "新聞", "書籍"}},
}

const defaultItemCategory = "その他"

// ExtractItems parses the product lines of the receipt. Lines matching a
// skip pattern are ignored; for the rest the first matching shape wins.
func ExtractItems(text string) []LineItem {
	var items []LineItem
	for _, line := range splitLines(text) {
		if line == "" {
			continue
		}
		if matchesAnyPattern(line, itemSkipPatterns) {
			continue
		}

		for _, shape := range itemShapes {
			m := shape.re.FindStringSubmatch(line)
			if m == nil {
				continue
			}

			name := strings.TrimSpace(m[1])
			if name == "" {
				break
			}
			quantity := 1
			priceGroup := 2
			if shape.qtyGroup > 0 {
				if q, err := strconv.Atoi(m[shape.qtyGroup]); err == nil && q >= 1 {
					quantity = q
				}
				priceGroup = 3
			}
			price, err := strconv.Atoi(strings.ReplaceAll(m[priceGroup], ",", ""))
			if err != nil || price <= 0 {
				break
			}

			items = append(items, LineItem{
				Name:     name,
				Price:    price,
				Quantity: quantity,
				Category: guessItemCategory(name),
			})
			break
		}
	}
	return items
}

// guessItemCategory does a coarse keyword lookup on the item name.
func guessItemCategory(name string) string {
	for _, entry := range itemCategoryKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(name, kw) {
				return entry.category
			}
		}
	}
	return defaultItemCategory
}

func matchesAnyPattern(s string, patterns []*regexp.Regexp) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
