package core

// FallbackIcon is used when a record's category name no longer resolves to a
// live category (renamed or deleted after the record was written).
const FallbackIcon = "Category"

// DefaultCategories returns the category set installed on first run:
// ten expense categories followed by seven income categories, with
// per-type sort order matching their position here.
func DefaultCategories() []Category {
	expense := []Category{
		{Name: "餐饮", Icon: "Restaurant"},
		{Name: "交通", Icon: "DirectionsCar"},
		{Name: "购物", Icon: "ShoppingBag"},
		{Name: "娱乐", Icon: "Movie"},
		{Name: "住房", Icon: "Home"},
		{Name: "医疗", Icon: "LocalHospital"},
		{Name: "教育", Icon: "School"},
		{Name: "通讯", Icon: "Smartphone"},
		{Name: "服装", Icon: "Checkroom"},
		{Name: "其他", Icon: "Inventory2"},
	}
	income := []Category{
		{Name: "工资", Icon: "AttachMoney"},
		{Name: "奖金", Icon: "CardGiftcard"},
		{Name: "投资", Icon: "TrendingUp"},
		{Name: "兼职", Icon: "Work"},
		{Name: "红包", Icon: "Mail"},
		{Name: "退款", Icon: "AssignmentReturn"},
		{Name: "其他", Icon: "Diamond"},
	}

	out := make([]Category, 0, len(expense)+len(income))
	for i, c := range expense {
		c.Type = Expense
		c.SortOrder = i
		out = append(out, c)
	}
	for i, c := range income {
		c.Type = Income
		c.SortOrder = i
		out = append(out, c)
	}
	return out
}

// DefaultAccounts returns the starter accounts installed on first run, all
// with a zero balance.
func DefaultAccounts() []Account {
	return []Account{
		{Name: "钱包现金", Type: "现金账户", Icon: "AccountBalanceWallet"},
		{Name: "中国银行", Type: "银行账户", Icon: "AccountBalance"},
		{Name: "支付宝", Type: "网络账户", Icon: "Smartphone"},
		{Name: "微信", Type: "网络账户", Icon: "Chat"},
	}
}
