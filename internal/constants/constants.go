package constants

// 订单状态常量
const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// AllOrderStatuses 订单状态全集（统计时逐一补零）
var AllOrderStatuses = []string{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// 客户状态常量
const (
	CustomerStatusActive   = "active"
	CustomerStatusDisabled = "disabled"
)

// 验证码提供方常量
const (
	CaptchaProviderNone  = "none"
	CaptchaProviderImage = "image"
)

// 验证码场景常量
const (
	CaptchaSceneLogin    = "login"
	CaptchaSceneRegister = "register"
)

// 队列常量
const (
	QueueDefault   = "default"
	TaskOrderSMS   = "notify:order_sms"
	TaskOrderEmail = "notify:order_email"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault   = "sokoni"
	CategoryTreeCacheKey = "catalog:category_tree"
)

// 币种常量
const (
	SiteCurrencyDefault = "KES"
)

// 分类树遍历深度上限，防御构造异常导致的环
const CategoryTreeMaxDepth = 32

// 分类全路径分隔符
const CategoryPathSeparator = " > "
