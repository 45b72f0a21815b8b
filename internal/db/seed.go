package db

import (
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/slugutil"
	"github.com/kenshuhub/kenshuhub-backend/internal/types"
)

func seedIndustries(tx *gorm.DB) error {
	rows := []types.Industry{
		{Name: "宿泊", NameEN: "Accommodation", Description: "宿泊業・ホテル・旅館", Icon: "bi-house-door", Color: "#e63946"},
		{Name: "小売", NameEN: "Retail", Description: "小売業・販売業", Icon: "bi-shop", Color: "#f4a261"},
		{Name: "飲食", NameEN: "Food and Beverage", Description: "飲食業・レストラン・カフェ", Icon: "bi-cup-hot", Color: "#2a9d8f"},
		{Name: "介護", NameEN: "Nursing Care", Description: "介護・福祉サービス", Icon: "bi-heart-pulse", Color: "#e76f51"},
		{Name: "医療", NameEN: "Medical Care", Description: "医療・ヘルスケア", Icon: "bi-hospital", Color: "#264653"},
		{Name: "教育", NameEN: "Education", Description: "教育・研修サービス", Icon: "bi-mortarboard", Color: "#8338ec"},
	}
	for i := range rows {
		if err := firstOrCreate(tx, &types.Industry{}, "name = ?", []any{rows[i].Name}, &rows[i]); err != nil {
			return err
		}
	}
	return nil
}

func seedTenants(tx *gorm.DB) error {
	pairs := []struct{ tenant, industry string }{
		{"グランドホテル東京", "宿泊"},
		{"湯元旅館", "宿泊"},
		{"スーパーマート", "小売"},
		{"ファッションストア", "小売"},
		{"さくらレストラン", "飲食"},
		{"スマイルケアセンター", "介護"},
		{"セントラルクリニック", "医療"},
		{"ブライトアカデミー", "教育"},
	}
	for _, p := range pairs {
		indID, err := industryIDByName(tx, p.industry)
		if err != nil {
			return err
		}
		row := types.Tenant{Name: p.tenant, IndustryID: indID}
		if err := firstOrCreate(tx, &types.Tenant{}, "name = ?", []any{p.tenant}, &row); err != nil {
			return err
		}
	}
	return nil
}

func seedDepartments(tx *gorm.DB) error {
	rows := []struct{ tenant, dept string }{
		{"グランドホテル東京", "フロント課"},
		{"グランドホテル東京", "営業部"},
		{"スーパーマート", "販売部"},
		{"スーパーマート", "バイヤー部"},
	}
	for _, d := range rows {
		tenID, err := tenantIDByName(tx, d.tenant)
		if err != nil {
			return err
		}
		if tenID == nil {
			continue
		}
		row := types.Department{TenantID: *tenID, Name: d.dept}
		if err := firstOrCreate(tx, &types.Department{}, "tenant_id = ? AND name = ?", []any{*tenID, d.dept}, &row); err != nil {
			return err
		}
	}
	return nil
}

func seedUsers(tx *gorm.DB) error {
	type seedUser struct {
		username, email, password string
		industry, tenant, dept    string
		company, role             string
	}
	rows := []seedUser{
		{"admin", "admin@example.com", "admin123", "", "", "", "", types.RoleSuperAdmin},
		{"hotel_tanaka", "tanaka@grandhotel.co.jp", "user123", "宿泊", "グランドホテル東京", "フロント課", "グランドホテル東京", types.RoleCompanyAdmin},
		{"ryokan_suzuki", "suzuki@yumoto-ryokan.jp", "user123", "宿泊", "湯元旅館", "", "湯元旅館", types.RoleUser},
		{"retail_yamada", "yamada@supermart.co.jp", "user123", "小売", "スーパーマート", "販売部", "スーパーマート", types.RoleCompanyAdmin},
		{"shop_sato", "sato@fashion-store.jp", "user123", "小売", "ファッションストア", "", "ファッションストア", types.RoleUser},
		{"restaurant_ito", "ito@sakura-restaurant.jp", "user123", "飲食", "さくらレストラン", "", "さくらレストラン", types.RoleUser},
		{"care_watanabe", "watanabe@smile-care.jp", "user123", "介護", "スマイルケアセンター", "", "スマイルケアセンター", types.RoleUser},
		{"medical_takahashi", "takahashi@central-clinic.jp", "user123", "医療", "セントラルクリニック", "", "セントラルクリニック", types.RoleUser},
		{"edu_kobayashi", "kobayashi@bright-academy.jp", "user123", "教育", "ブライトアカデミー", "", "ブライトアカデミー", types.RoleUser},
	}
	for _, u := range rows {
		var count int64
		if err := tx.Model(&types.User{}).Where("username = ?", u.username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash seed password: %w", err)
		}
		row := types.User{
			Username:     u.username,
			Email:        u.email,
			PasswordHash: string(hash),
			CompanyName:  u.company,
			Role:         u.role,
		}
		if u.industry != "" {
			if row.IndustryID, err = industryIDByName(tx, u.industry); err != nil {
				return err
			}
		}
		if u.tenant != "" {
			if row.TenantID, err = tenantIDByName(tx, u.tenant); err != nil {
				return err
			}
		}
		if u.dept != "" && row.TenantID != nil {
			var dept types.Department
			err := tx.Where("tenant_id = ? AND name = ?", *row.TenantID, u.dept).First(&dept).Error
			if err == nil {
				row.DepartmentID = &dept.ID
			} else if err != gorm.ErrRecordNotFound {
				return err
			}
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

type seedCategory struct {
	name, slug, desc, icon, color string
	parent                        string
	order                         int
}

var catalogSeed = []seedCategory{
	{"基礎編", "kiso-hen", "生成AIの基本的な使い方を学ぶ", "bi-book", "#667eea", "", 1},
	{"応用編", "ouyou-hen", "業務での実践的な活用方法を学ぶ", "bi-lightbulb", "#764ba2", "", 2},
	{"実践編", "jissen-hen", "実際の事例やワークショップ", "bi-briefcase", "#f093fb", "", 3},
	{"プロンプト入門", "prompt-nyuumon", "プロンプトの基本と効果的な書き方", "bi-chat-dots", "#667eea", "基礎編", 1},
	{"基本操作ガイド", "kihon-sousa-guide", "基本的な操作方法", "bi-gear", "#667eea", "基礎編", 2},
	{"業務活用術", "gyoumu-katsuyou", "日常業務でのAI活用テクニック", "bi-graph-up", "#764ba2", "応用編", 1},
	{"データ分析活用", "data-bunseki", "データ分析でのAI活用方法", "bi-bar-chart", "#764ba2", "応用編", 2},
	{"事例紹介", "jirei-shoukai", "社内での活用事例を紹介", "bi-collection", "#f093fb", "実践編", 1},
	{"ワークショップ", "workshop", "実践的なハンズオンワークショップ", "bi-people", "#f093fb", "実践編", 2},
	{"宿泊業向けAI活用", "shukuhaku-ai", "宿泊業・ホテル・旅館向けAI活用トレーニング", "bi-house-door", "#e63946", "", 10},
	{"予約管理の効率化", "yoyaku-kanri", "AIを活用した予約管理と顧客対応", "bi-calendar-check", "#e63946", "宿泊業向けAI活用", 1},
	{"多言語対応", "tagengo-taiou", "外国人観光客対応のAI活用", "bi-globe", "#e63946", "宿泊業向けAI活用", 2},
	{"小売業向けAI活用", "kouri-ai", "小売・販売業向けAI活用トレーニング", "bi-shop", "#f4a261", "", 11},
	{"在庫管理の最適化", "zaiko-kanri", "AIを活用した在庫管理と需要予測", "bi-box-seam", "#f4a261", "小売業向けAI活用", 1},
	{"飲食業向けAI活用", "inshoku-ai", "飲食業向けAI活用トレーニング", "bi-cup-hot", "#2a9d8f", "", 12},
	{"メニュー開発支援", "menu-kaihatsu", "AIを活用したメニュー開発とレシピ提案", "bi-journal-text", "#2a9d8f", "飲食業向けAI活用", 1},
	{"介護業向けAI活用", "kaigo-ai", "介護・福祉向けAI活用トレーニング", "bi-heart-pulse", "#e76f51", "", 13},
	{"ケアプラン作成支援", "careplan-sakusei", "AIを活用したケアプラン作成", "bi-clipboard-heart", "#e76f51", "介護業向けAI活用", 1},
	{"医療業向けAI活用", "iryou-ai", "医療・ヘルスケア向けAI活用トレーニング", "bi-hospital", "#264653", "", 14},
	{"医療文書作成支援", "iryou-bunsho", "AIを活用した医療文書・レポート作成", "bi-file-medical", "#264653", "医療業向けAI活用", 1},
	{"教育業向けAI活用", "kyouiku-ai", "教育・研修向けAI活用トレーニング", "bi-mortarboard", "#8338ec", "", 15},
	{"教材作成支援", "kyouzai-sakusei", "AIを活用した教材・カリキュラム作成", "bi-journal-bookmark", "#8338ec", "教育業向けAI活用", 1},
}

func seedCategories(tx *gorm.DB) error {
	for _, c := range catalogSeed {
		var parentID *uuid.UUID
		if c.parent != "" {
			var parent types.Category
			if err := tx.Where("name = ? AND parent_id IS NULL", c.parent).First(&parent).Error; err != nil {
				return fmt.Errorf("seed category %q: parent %q: %w", c.name, c.parent, err)
			}
			parentID = &parent.ID
		}

		q := tx.Model(&types.Category{}).Where("name = ?", c.name)
		if parentID == nil {
			q = q.Where("parent_id IS NULL")
		} else {
			q = q.Where("parent_id = ?", *parentID)
		}
		var count int64
		if err := q.Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		row := types.Category{
			Name:         c.name,
			Slug:         c.slug,
			Description:  c.desc,
			Icon:         c.icon,
			Color:        c.color,
			ParentID:     parentID,
			DisplayOrder: c.order,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}

	// Industry categories are restricted to their own industry. Categories
	// with no rows here stay visible to everyone.
	restricted := []struct{ category, industry string }{
		{"宿泊業向けAI活用", "宿泊"},
		{"小売業向けAI活用", "小売"},
		{"飲食業向けAI活用", "飲食"},
		{"介護業向けAI活用", "介護"},
		{"医療業向けAI活用", "医療"},
		{"教育業向けAI活用", "教育"},
	}
	for _, r := range restricted {
		var cat types.Category
		if err := tx.Where("name = ? AND parent_id IS NULL", r.category).First(&cat).Error; err != nil {
			return err
		}
		indID, err := industryIDByName(tx, r.industry)
		if err != nil {
			return err
		}
		if indID == nil {
			continue
		}
		row := types.CategoryIndustryAccess{CategoryID: cat.ID, IndustryID: *indID}
		if err := firstOrCreate(tx, &types.CategoryIndustryAccess{},
			"category_id = ? AND industry_id = ?", []any{cat.ID, *indID}, &row); err != nil {
			return err
		}
	}
	return nil
}

func seedUsecases(tx *gorm.DB) error {
	rows := []struct{ industry, title, desc, keywords, example string }{
		{"宿泊", "予約メール自動返信", "予約問い合わせに対する自動返信メールの生成", "予約,メール,返信,自動化", "以下の予約問い合わせに対して、丁寧な返信メールを作成してください："},
		{"宿泊", "多言語対応", "外国人観光客向けの多言語案内文の生成", "翻訳,多言語,インバウンド,観光", "ホテルの館内案内を英語と中国語に翻訳してください："},
		{"宿泊", "口コミ返信作成", "レビューサイトへの返信文の作成", "口コミ,レビュー,返信,顧客対応", "このお客様レビューに対する適切な返信を作成してください："},
		{"小売", "商品説明文作成", "ECサイト向け商品説明文の自動生成", "商品説明,EC,コピーライティング", "この商品の魅力的な説明文を作成してください："},
		{"小売", "在庫管理レポート", "在庫状況の分析レポート作成", "在庫,分析,レポート,需要予測", "以下の在庫データから分析レポートを作成してください："},
		{"小売", "お客様対応FAQ", "よくある質問への回答作成", "FAQ,顧客対応,問い合わせ", "このお客様の問い合わせに対する回答を作成してください："},
		{"飲食", "メニュー開発アイデア", "新メニューのアイデア提案", "メニュー,レシピ,開発,季節", "秋の新メニューのアイデアを5つ提案してください："},
		{"飲食", "SNS投稿文作成", "料理写真に添えるSNS投稿文の作成", "SNS,Instagram,投稿,ハッシュタグ", "この料理写真に合うInstagram投稿文を作成してください："},
		{"飲食", "アレルギー対応案内", "アレルギー情報の説明文作成", "アレルギー,食材,対応,説明", "メニューのアレルギー情報を分かりやすく説明してください："},
		{"介護", "ケアプラン作成支援", "利用者情報からのケアプラン素案作成", "ケアプラン,介護計画,アセスメント", "この利用者情報からケアプランの素案を作成してください："},
		{"介護", "家族への報告書作成", "利用者の状況報告書の作成", "報告書,家族,状況報告", "今月の利用者の様子を家族向け報告書にまとめてください："},
		{"介護", "記録文書の効率化", "介護記録の文章化支援", "記録,文書化,効率化", "以下のメモから正式な介護記録を作成してください："},
		{"医療", "患者説明資料作成", "患者向け説明資料の作成", "患者説明,資料,分かりやすい", "この治療法について患者さんに分かりやすく説明してください："},
		{"医療", "医療文書サマリー", "医療文書の要約作成", "要約,サマリー,カルテ", "この医療記録の要約を作成してください："},
		{"医療", "問診票の分析", "問診情報の整理と分析", "問診,分析,症状", "以下の問診情報から重要なポイントを整理してください："},
		{"教育", "教材作成支援", "授業用教材の作成", "教材,授業,カリキュラム", "このトピックについて中学生向けの教材を作成してください："},
		{"教育", "テスト問題作成", "理解度確認テストの作成", "テスト,問題,評価", "この単元の理解度を確認するテスト問題を作成してください："},
		{"教育", "保護者向け通知作成", "保護者への連絡文書作成", "保護者,通知,連絡", "以下の内容を保護者向けにお知らせ文書にしてください："},
	}
	for _, u := range rows {
		indID, err := industryIDByName(tx, u.industry)
		if err != nil {
			return err
		}
		if indID == nil {
			continue
		}
		row := types.IndustryUsecase{
			IndustryID:    *indID,
			Title:         u.title,
			Description:   u.desc,
			Keywords:      u.keywords,
			ExamplePrompt: u.example,
		}
		if err := firstOrCreate(tx, &types.IndustryUsecase{},
			"industry_id = ? AND title = ?", []any{*indID, u.title}, &row); err != nil {
			return err
		}
	}
	return nil
}

func backfillSlugs(tx *gorm.DB) error {
	var cats []types.Category
	if err := tx.Where("slug IS NULL OR slug = ''").Find(&cats).Error; err != nil {
		return err
	}
	for i := range cats {
		slug, err := uniqueSlug(tx, &types.Category{}, cats[i].Name)
		if err != nil {
			return err
		}
		if err := tx.Model(&types.Category{}).Where("id = ?", cats[i].ID).Update("slug", slug).Error; err != nil {
			return err
		}
	}

	var videos []types.Video
	if err := tx.Where("slug IS NULL OR slug = ''").Find(&videos).Error; err != nil {
		return err
	}
	for i := range videos {
		slug, err := uniqueSlug(tx, &types.Video{}, videos[i].Title)
		if err != nil {
			return err
		}
		if err := tx.Model(&types.Video{}).Where("id = ?", videos[i].ID).Update("slug", slug).Error; err != nil {
			return err
		}
	}
	return nil
}

func ensureTenantAdmins(tx *gorm.DB) error {
	fallbackAdmins := map[string][2]string{
		"湯元旅館":       {"ryokan_admin", "admin@yumoto-ryokan.jp"},
		"ファッションストア":  {"fashion_admin", "admin@fashion-store.jp"},
		"さくらレストラン":   {"sakura_admin", "admin@sakura-restaurant.jp"},
		"スマイルケアセンター": {"care_admin", "admin@smile-care.jp"},
		"セントラルクリニック": {"medical_admin", "admin@central-clinic.jp"},
		"ブライトアカデミー":  {"edu_admin", "admin@bright-academy.jp"},
	}

	var orphans []types.Tenant
	err := tx.Where("NOT EXISTS (SELECT 1 FROM users u WHERE u.tenant_id = tenants.id AND u.role = ?)",
		types.RoleCompanyAdmin).Find(&orphans).Error
	if err != nil {
		return err
	}

	for _, t := range orphans {
		username := fmt.Sprintf("admin_%s", t.ID.String()[:8])
		email := fmt.Sprintf("admin_%s@example.com", t.ID.String()[:8])
		if acct, ok := fallbackAdmins[t.Name]; ok {
			username, email = acct[0], acct[1]
		}

		var count int64
		if err := tx.Model(&types.User{}).Where("username = ? OR email = ?", username, email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		tenantID := t.ID
		row := types.User{
			Username:     username,
			Email:        email,
			PasswordHash: string(hash),
			IndustryID:   t.IndustryID,
			TenantID:     &tenantID,
			CompanyName:  t.Name,
			Role:         types.RoleCompanyAdmin,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

func firstOrCreate(tx *gorm.DB, model any, cond string, args []any, row any) error {
	var count int64
	if err := tx.Model(model).Where(cond, args...).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return tx.Create(row).Error
}

func industryIDByName(tx *gorm.DB, name string) (*uuid.UUID, error) {
	var ind types.Industry
	err := tx.Where("name = ?", name).First(&ind).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ind.ID, nil
}

func tenantIDByName(tx *gorm.DB, name string) (*uuid.UUID, error) {
	var t types.Tenant
	err := tx.Where("name = ?", name).First(&t).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t.ID, nil
}

func uniqueSlug(tx *gorm.DB, model any, title string) (string, error) {
	base := slugutil.Make(title)
	slug := base
	for n := 2; ; n++ {
		var count int64
		if err := tx.Model(model).Where("slug = ?", slug).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, n)
	}
}
