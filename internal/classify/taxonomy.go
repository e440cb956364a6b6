// Package classify maps extracted receipt records to bookkeeping expense
// categories, suggests account titles with review warnings, and checks new
// records against history for duplicates and statistical anomalies. All
// functions are pure over their explicit inputs.
package classify

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Category is one entry of the expense taxonomy. AccountTitle is the
// bookkeeping ledger label (勘定科目) the expense is recorded under.
type Category struct {
	ID            string   `json:"id" yaml:"id"`
	Name          string   `json:"name" yaml:"name"`
	AccountTitle  string   `json:"accountTitle" yaml:"accountTitle"`
	TaxDeductible bool     `json:"taxDeductible" yaml:"taxDeductible"`
	Keywords      []string `json:"keywords" yaml:"keywords"`
}

// fallbackCategoryID names the category used when nothing scores.
const fallbackCategoryID = "personal"

// DefaultTaxonomy returns the built-in hand-curated taxonomy. Order is
// significant: classification ties keep the first-seen category.
func DefaultTaxonomy() []Category {
	return []Category{
		{ID: "transport_train", Name: "電車・バス", AccountTitle: "旅費交通費", TaxDeductible: true,
			Keywords: []string{"jr", "メトロ", "地下鉄", "バス", "鉄道", "suica", "pasmo", "icoca", "切符", "乗車券"}},
		{ID: "transport_taxi", Name: "タクシー", AccountTitle: "旅費交通費", TaxDeductible: true,
			Keywords: []string{"タクシー", "taxi", "uber", "go株式会社", "日本交通"}},
		{ID: "transport_gas", Name: "ガソリン・車両", AccountTitle: "車両費", TaxDeductible: true,
			Keywords: []string{"eneos", "エネオス", "出光", "シェル", "コスモ石油", "ガソリン", "軽油", "灯油", "給油"}},
		{ID: "parking", Name: "駐車場", AccountTitle: "旅費交通費", TaxDeductible: true,
			Keywords: []string{"駐車", "パーキング", "times", "タイムズ", "コインパーク"}},
		{ID: "travel", Name: "宿泊・出張", AccountTitle: "旅費交通費", TaxDeductible: true,
			Keywords: []string{"ホテル", "hotel", "旅館", "宿泊", "航空", "ana", "jal", "新幹線"}},
		{ID: "meeting", Name: "会議・打合せ", AccountTitle: "会議費", TaxDeductible: true,
			Keywords: []string{"スターバックス", "starbucks", "ドトール", "タリーズ", "喫茶", "カフェ", "cafe", "珈琲"}},
		{ID: "entertainment", Name: "接待・交際", AccountTitle: "接待交際費", TaxDeductible: true,
			Keywords: []string{"居酒屋", "寿司", "鮨", "料亭", "レストラン", "焼肉", "割烹", "バー", "スナック", "贈答", "御祝", "香典"}},
		{ID: "supplies", Name: "消耗品", AccountTitle: "消耗品費", TaxDeductible: true,
			Keywords: []string{"ホームセンター", "カインズ", "コーナン", "ダイソー", "セリア", "100円", "電池", "工具"}},
		{ID: "office", Name: "事務用品", AccountTitle: "事務用品費", TaxDeductible: true,
			Keywords: []string{"文具", "文房具", "コクヨ", "アスクル", "askul", "事務", "ペン", "コピー用紙", "インク", "トナー"}},
		{ID: "books", Name: "書籍・新聞", AccountTitle: "新聞図書費", TaxDeductible: true,
			Keywords: []string{"書店", "紀伊國屋", "丸善", "ジュンク堂", "book", "ブック", "書籍", "新聞", "雑誌"}},
		{ID: "communication", Name: "通信", AccountTitle: "通信費", TaxDeductible: true,
			Keywords: []string{"docomo", "ドコモ", "softbank", "ソフトバンク", "au", "楽天モバイル", "携帯", "電話", "インターネット", "プロバイダ"}},
		{ID: "postage", Name: "郵送・配送", AccountTitle: "荷造運賃", TaxDeductible: true,
			Keywords: []string{"郵便", "ゆうパック", "切手", "ヤマト", "宅急便", "佐川", "配送", "送料"}},
		{ID: "utilities", Name: "水道光熱", AccountTitle: "水道光熱費", TaxDeductible: true,
			Keywords: []string{"電力", "電気料金", "ガス料金", "東京電力", "東京ガス", "水道"}},
		{ID: "advertising", Name: "広告宣伝", AccountTitle: "広告宣伝費", TaxDeductible: true,
			Keywords: []string{"広告", "チラシ", "印刷", "名刺", "看板", "google ads", "プロモーション"}},
		{ID: "outsourcing", Name: "外注", AccountTitle: "外注費", TaxDeductible: true,
			Keywords: []string{"外注", "業務委託", "デザイン料", "制作費"}},
		{ID: "fees", Name: "手数料", AccountTitle: "支払手数料", TaxDeductible: true,
			Keywords: []string{"手数料", "振込", "仲介", "司法書士", "行政書士", "税理士", "弁護士"}},
		{ID: "rent", Name: "家賃・会場", AccountTitle: "地代家賃", TaxDeductible: true,
			Keywords: []string{"家賃", "賃料", "会議室", "レンタルスペース", "コワーキング"}},
		{ID: "repair", Name: "修繕", AccountTitle: "修繕費", TaxDeductible: true,
			Keywords: []string{"修理", "修繕", "メンテナンス", "点検"}},
		{ID: "insurance", Name: "保険", AccountTitle: "保険料", TaxDeductible: true,
			Keywords: []string{"保険", "損保", "共済"}},
		{ID: "welfare", Name: "福利厚生", AccountTitle: "福利厚生費", TaxDeductible: true,
			Keywords: []string{"健康診断", "常備薬", "社員旅行", "歓迎会", "忘年会"}},
		{ID: "education", Name: "研修・セミナー", AccountTitle: "研修費", TaxDeductible: true,
			Keywords: []string{"セミナー", "研修", "講座", "受講", "資格"}},
		{ID: "groceries", Name: "食料品・コンビニ", AccountTitle: "福利厚生費", TaxDeductible: true,
			Keywords: []string{"セブンイレブン", "ローソン", "ファミリーマート", "コンビニ", "スーパー", "イオン", "西友", "弁当", "お茶"}},
		{ID: fallbackCategoryID, Name: "事業外・個人", AccountTitle: "事業主貸", TaxDeductible: false,
			Keywords: []string{}},
	}
}

// LoadTaxonomy reads a taxonomy override from a YAML file. The file must
// contain the full category list; entry order is preserved.
func LoadTaxonomy(path string) ([]Category, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading taxonomy file: %w", err)
	}
	var categories []Category
	if err := yaml.Unmarshal(data, &categories); err != nil {
		return nil, fmt.Errorf("parsing taxonomy file: %w", err)
	}
	if len(categories) == 0 {
		return nil, fmt.Errorf("taxonomy file %s contains no categories", path)
	}
	return categories, nil
}
