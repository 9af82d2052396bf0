package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sokoni-shop/internal/cache"
	"github.com/sokoni-shop/internal/constants"
	"github.com/sokoni-shop/internal/logger"
	"github.com/sokoni-shop/internal/models"
	"github.com/sokoni-shop/internal/repository"

	"github.com/shopspring/decimal"
)

const categoryTreeCacheTTL = 5 * time.Minute

// CategoryService 分类业务服务
// 树相关查询统一走 categoryIndex：一次加载全部节点，按 ID 建索引，
// 祖先/后代遍历在索引上迭代完成，不追踪活对象引用。
type CategoryService struct {
	repo        repository.CategoryRepository
	productRepo repository.ProductRepository
}

// NewCategoryService 创建分类服务
func NewCategoryService(repo repository.CategoryRepository, productRepo repository.ProductRepository) *CategoryService {
	return &CategoryService{repo: repo, productRepo: productRepo}
}

// CategoryInput 创建/更新分类输入
type CategoryInput struct {
	Name        string
	Slug        string
	Description string
	ParentID    *uint
	IsActive    *bool
}

// CategoryTreeNode 分类树节点
type CategoryTreeNode struct {
	ID          uint               `json:"id"`
	Name        string             `json:"name"`
	Slug        string             `json:"slug"`
	Description string             `json:"description"`
	Level       int                `json:"level"`
	Children    []CategoryTreeNode `json:"children"`
}

// CategoryPriceStats 分类子树价格统计
type CategoryPriceStats struct {
	CategoryID   uint          `json:"category_id"`
	CategoryName string        `json:"category_name"`
	AveragePrice *models.Money `json:"average_price"`
	ProductCount int           `json:"product_count"`
	TotalValue   models.Money  `json:"total_value"`
}

// categoryIndex 分类索引：id→节点 + parent→children 邻接表
type categoryIndex struct {
	byID     map[uint]*models.Category
	children map[uint][]*models.Category
	roots    []*models.Category
}

func buildCategoryIndex(categories []models.Category) *categoryIndex {
	idx := &categoryIndex{
		byID:     make(map[uint]*models.Category, len(categories)),
		children: make(map[uint][]*models.Category),
	}
	for i := range categories {
		idx.byID[categories[i].ID] = &categories[i]
	}
	for i := range categories {
		node := &categories[i]
		if node.ParentID == nil {
			idx.roots = append(idx.roots, node)
			continue
		}
		idx.children[*node.ParentID] = append(idx.children[*node.ParentID], node)
	}
	return idx
}

// level 父链跳数，根节点为 0。深度上限防御脏数据成环。
func (idx *categoryIndex) level(id uint) int {
	depth := 0
	node := idx.byID[id]
	for node != nil && node.ParentID != nil && depth < constants.CategoryTreeMaxDepth {
		node = idx.byID[*node.ParentID]
		depth++
	}
	return depth
}

// ancestors 根在前、不含自身
func (idx *categoryIndex) ancestors(id uint) []*models.Category {
	var chain []*models.Category
	node := idx.byID[id]
	for node != nil && node.ParentID != nil && len(chain) < constants.CategoryTreeMaxDepth {
		parent := idx.byID[*node.ParentID]
		if parent == nil {
			break
		}
		chain = append(chain, parent)
		node = parent
	}
	// 反转为根在前
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// descendantIDs 含自身的子树 ID 集合（迭代 DFS）
func (idx *categoryIndex) descendantIDs(id uint) []uint {
	ids := make([]uint, 0, 8)
	stack := []uint{id}
	seen := map[uint]bool{}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[current] {
			continue
		}
		seen[current] = true
		ids = append(ids, current)
		for _, child := range idx.children[current] {
			stack = append(stack, child.ID)
		}
	}
	return ids
}

func (s *CategoryService) loadIndex(onlyActive bool) (*categoryIndex, error) {
	var categories []models.Category
	var err error
	if onlyActive {
		categories, err = s.repo.ListActive()
	} else {
		categories, err = s.repo.ListAll()
	}
	if err != nil {
		return nil, err
	}
	return buildCategoryIndex(categories), nil
}

// List 获取全部分类（管理端）
func (s *CategoryService) List() ([]models.Category, error) {
	return s.repo.ListAll()
}

// ListActive 获取启用分类（公开端平铺列表）
func (s *CategoryService) ListActive() ([]models.Category, error) {
	return s.repo.ListActive()
}

// Get 获取分类
func (s *CategoryService) Get(id uint) (*models.Category, error) {
	category, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}
	return category, nil
}

// Level 分类层级（根为 0）
func (s *CategoryService) Level(id uint) (int, error) {
	idx, err := s.loadIndex(false)
	if err != nil {
		return 0, err
	}
	if idx.byID[id] == nil {
		return 0, ErrCategoryNotFound
	}
	return idx.level(id), nil
}

// Ancestors 祖先链，根在前，不含自身
func (s *CategoryService) Ancestors(id uint) ([]models.Category, error) {
	idx, err := s.loadIndex(false)
	if err != nil {
		return nil, err
	}
	if idx.byID[id] == nil {
		return nil, ErrCategoryNotFound
	}
	chain := idx.ancestors(id)
	result := make([]models.Category, 0, len(chain))
	for _, node := range chain {
		result = append(result, *node)
	}
	return result, nil
}

// FullPath 根到自身的名称路径，如 "Electronics > Computers > Laptops"
func (s *CategoryService) FullPath(id uint) (string, error) {
	idx, err := s.loadIndex(false)
	if err != nil {
		return "", err
	}
	node := idx.byID[id]
	if node == nil {
		return "", ErrCategoryNotFound
	}
	names := make([]string, 0, 4)
	for _, ancestor := range idx.ancestors(id) {
		names = append(names, ancestor.Name)
	}
	names = append(names, node.Name)
	return strings.Join(names, constants.CategoryPathSeparator), nil
}

// Descendants 子树节点，不含自身
func (s *CategoryService) Descendants(id uint) ([]models.Category, error) {
	idx, err := s.loadIndex(false)
	if err != nil {
		return nil, err
	}
	if idx.byID[id] == nil {
		return nil, ErrCategoryNotFound
	}
	result := make([]models.Category, 0, 8)
	for _, descendantID := range idx.descendantIDs(id) {
		if descendantID == id {
			continue
		}
		result = append(result, *idx.byID[descendantID])
	}
	return result, nil
}

// Tree 公开分类树：仅含启用分类，停用分支整枝剪掉，各层按名称排序。
// Redis 命中则直接返回缓存结构。
func (s *CategoryService) Tree(ctx context.Context) ([]CategoryTreeNode, error) {
	if cache.Enabled() {
		var cached []CategoryTreeNode
		hit, err := cache.GetJSON(ctx, constants.CategoryTreeCacheKey, &cached)
		if err != nil {
			logger.Warnw("category_tree_cache_read_failed", "error", err)
		} else if hit {
			return cached, nil
		}
	}

	idx, err := s.loadIndex(true)
	if err != nil {
		return nil, err
	}

	tree := buildTreeNodes(idx, idx.roots, 0)

	if cache.Enabled() {
		if err := cache.SetJSON(ctx, constants.CategoryTreeCacheKey, tree, categoryTreeCacheTTL); err != nil {
			logger.Warnw("category_tree_cache_write_failed", "error", err)
		}
	}
	return tree, nil
}

func buildTreeNodes(idx *categoryIndex, nodes []*models.Category, level int) []CategoryTreeNode {
	if level >= constants.CategoryTreeMaxDepth {
		return []CategoryTreeNode{}
	}
	sorted := make([]*models.Category, len(nodes))
	copy(sorted, nodes)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	result := make([]CategoryTreeNode, 0, len(sorted))
	for _, node := range sorted {
		result = append(result, CategoryTreeNode{
			ID:          node.ID,
			Name:        node.Name,
			Slug:        node.Slug,
			Description: node.Description,
			Level:       level,
			Children:    buildTreeNodes(idx, idx.children[node.ID], level+1),
		})
	}
	return result
}

// AveragePrice 子树（含自身）启用商品的价格统计。
// 无商品时 AveragePrice 为 nil，区别于均价为零。
func (s *CategoryService) AveragePrice(id uint) (*CategoryPriceStats, error) {
	category, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if category == nil || !category.IsActive {
		return nil, ErrCategoryNotFound
	}

	idx, err := s.loadIndex(false)
	if err != nil {
		return nil, err
	}
	subtreeIDs := idx.descendantIDs(id)

	products, err := s.productRepo.ListActiveByCategoryIDs(subtreeIDs)
	if err != nil {
		return nil, err
	}

	stats := &CategoryPriceStats{
		CategoryID:   category.ID,
		CategoryName: category.Name,
		ProductCount: len(products),
		TotalValue:   models.NewMoneyFromDecimal(decimal.Zero),
	}
	if len(products) == 0 {
		return stats, nil
	}

	total := decimal.Zero
	for _, product := range products {
		total = total.Add(product.Price.Decimal)
	}
	average := models.NewMoneyFromDecimal(total.Div(decimal.NewFromInt(int64(len(products)))))
	stats.AveragePrice = &average
	stats.TotalValue = models.NewMoneyFromDecimal(total)
	return stats, nil
}

// Create 创建分类
func (s *CategoryService) Create(ctx context.Context, input CategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name is required", ErrValidation)
	}
	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		slug = slugify(name)
	}

	if input.ParentID != nil {
		parent, err := s.repo.GetByID(*input.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, ErrCategoryNotFound
		}
	}

	if count, err := s.repo.CountBySlug(slug, nil); err != nil {
		return nil, err
	} else if count > 0 {
		return nil, ErrSlugExists
	}
	if count, err := s.repo.CountByName(name, nil); err != nil {
		return nil, err
	} else if count > 0 {
		return nil, ErrCategoryNameExists
	}

	category := models.Category{
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(input.Description),
		ParentID:    input.ParentID,
		IsActive:    true,
	}
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}
	if err := s.repo.Create(&category); err != nil {
		return nil, err
	}
	s.invalidateTreeCache(ctx)
	return &category, nil
}

// Update 更新分类
func (s *CategoryService) Update(ctx context.Context, id uint, input CategoryInput) (*models.Category, error) {
	category, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name is required", ErrValidation)
	}
	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		slug = slugify(name)
	}

	if count, err := s.repo.CountBySlug(slug, &id); err != nil {
		return nil, err
	} else if count > 0 {
		return nil, ErrSlugExists
	}
	if count, err := s.repo.CountByName(name, &id); err != nil {
		return nil, err
	} else if count > 0 {
		return nil, ErrCategoryNameExists
	}

	if input.ParentID != nil {
		if err := s.checkParent(id, *input.ParentID); err != nil {
			return nil, err
		}
	}

	category.Name = name
	category.Slug = slug
	category.Description = strings.TrimSpace(input.Description)
	category.ParentID = input.ParentID
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}

	if err := s.repo.Update(category); err != nil {
		return nil, err
	}
	s.invalidateTreeCache(ctx)
	return category, nil
}

// checkParent 父节点必须存在且不在自身子树内
func (s *CategoryService) checkParent(id, parentID uint) error {
	if parentID == id {
		return ErrCategoryCycle
	}
	idx, err := s.loadIndex(false)
	if err != nil {
		return err
	}
	if idx.byID[parentID] == nil {
		return ErrCategoryNotFound
	}
	for _, descendantID := range idx.descendantIDs(id) {
		if descendantID == parentID {
			return ErrCategoryCycle
		}
	}
	return nil
}

// Delete 删除分类：连同子树及其商品一并删除
func (s *CategoryService) Delete(ctx context.Context, id uint) error {
	category, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if category == nil {
		return ErrCategoryNotFound
	}

	idx, err := s.loadIndex(false)
	if err != nil {
		return err
	}
	subtreeIDs := idx.descendantIDs(id)

	if err := s.repo.DeleteSubtree(subtreeIDs); err != nil {
		return err
	}
	s.invalidateTreeCache(ctx)
	return nil
}

// EnsurePath 按名称链自顶向下查找或创建分类，返回链尾节点。
// 商品创建时可用 "Electronics > Laptops" 这样的路径简写挂载分类。
func (s *CategoryService) EnsurePath(ctx context.Context, names []string) (*models.Category, error) {
	cleaned := make([]string, 0, len(names))
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		cleaned = append(cleaned, trimmed)
	}
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("%w: category path is empty", ErrValidation)
	}
	if len(cleaned) > constants.CategoryTreeMaxDepth {
		return nil, fmt.Errorf("%w: category path too deep", ErrValidation)
	}

	var parentID *uint
	var current *models.Category
	for _, name := range cleaned {
		existing, err := s.repo.GetByNameAndParent(name, parentID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			created := models.Category{
				Name:     name,
				Slug:     s.uniqueSlug(name),
				ParentID: parentID,
				IsActive: true,
			}
			if err := s.repo.Create(&created); err != nil {
				return nil, err
			}
			existing = &created
			s.invalidateTreeCache(ctx)
		}
		current = existing
		id := existing.ID
		parentID = &id
	}
	return current, nil
}

// uniqueSlug 在基础 slug 冲突时追加序号
func (s *CategoryService) uniqueSlug(name string) string {
	base := slugify(name)
	slug := base
	for i := 2; i <= 100; i++ {
		count, err := s.repo.CountBySlug(slug, nil)
		if err != nil || count == 0 {
			return slug
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
	return slug
}

func (s *CategoryService) invalidateTreeCache(ctx context.Context) {
	if !cache.Enabled() {
		return
	}
	if err := cache.Del(ctx, constants.CategoryTreeCacheKey); err != nil {
		logger.Warnw("category_tree_cache_invalidate_failed", "error", err)
	}
}

// slugify 名称转 URL 安全 slug
func slugify(name string) string {
	var builder strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			builder.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				builder.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(builder.String(), "-")
}
