package commands

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/holdings/internal/collection"
	"github.com/wonny/holdings/internal/contracts"
	"github.com/wonny/holdings/internal/parser"
	"github.com/wonny/holdings/internal/schema"
)

var listCmd = &cobra.Command{
	Use:   "list <kind>",
	Short: "레코드 조회 (필터/정렬/검색)",
	Long: `지정한 종류의 레코드를 필터링하고 정렬해 출력합니다.
문자열 비교는 대소문자를 구분하지 않으며 COLLATION_LOCALE 규칙을 따릅니다.
값이 없는 필드는 정렬 방향과 무관하게 항상 마지막에 옵니다.

필터:
  --where field=value      값이 같은 레코드
  --in field=a|b|c         값이 목록 중 하나인 레코드
  --range field=lo..hi     범위 안의 레코드 (한쪽 생략 가능)
  --search text            텍스트 필드 부분 일치

Example:
  go run ./cmd/holdings list funds --sort name
  go run ./cmd/holdings list investments --where status=Active --sort irr --desc
  go run ./cmd/holdings list shipments --range dispatchDate=2024-01-01..2024-06-30
  go run ./cmd/holdings list students --search ann --limit 10`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

var (
	listWhere   []string
	listIn      []string
	listRange   []string
	listSearch  string
	listSort    string
	listDesc    bool
	listLimit   int
	listColumns []string
)

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringArrayVar(&listWhere, "where", nil, "일치 필터 field=value (반복 가능)")
	listCmd.Flags().StringArrayVar(&listIn, "in", nil, "목록 필터 field=a|b (반복 가능)")
	listCmd.Flags().StringArrayVar(&listRange, "range", nil, "범위 필터 field=lo..hi (반복 가능)")
	listCmd.Flags().StringVar(&listSearch, "search", "", "텍스트 검색")
	listCmd.Flags().StringVar(&listSort, "sort", "", "정렬 필드")
	listCmd.Flags().BoolVar(&listDesc, "desc", false, "내림차순 정렬")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "최대 출력 개수 (0=전체)")
	listCmd.Flags().StringSliceVar(&listColumns, "columns", nil, "출력 컬럼 (기본: 전체)")
}

func runList(cmd *cobra.Command, args []string) error {
	kind, err := contracts.ParseKind(args[0])
	if err != nil {
		return err
	}
	sc := schema.MustFor(kind)

	q, err := buildQuery(sc, listFlags{
		where: listWhere, in: listIn, ranges: listRange,
		search: listSearch, sort: listSort, desc: listDesc, limit: listLimit,
	})
	if err != nil {
		return err
	}

	cols := columns(sc)
	if len(listColumns) > 0 {
		for _, c := range listColumns {
			if !knownField(sc, c) {
				return fmt.Errorf("unknown %s field %q", kind, c)
			}
		}
		cols = listColumns
	}

	ctx := commandContext(cmd)
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	q.Locale = a.cfg.CollationLocale

	items, err := a.ws.List(kind, q)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if wantJSON() {
		return writeJSON(out, items)
	}

	p := a.printer(out)
	p.Header(fmt.Sprintf("%s (%d of %d)", kind.Collection(), len(items), a.ws.Counts()[kind]))
	if len(items) == 0 {
		p.Info("No matching records")
		return nil
	}
	p.Table(cols, p.entityRows(sc, cols, items))
	return nil
}

// listFlags is the raw filter input of a list command
type listFlags struct {
	where  []string
	in     []string
	ranges []string
	search string
	sort   string
	desc   bool
	limit  int
}

// buildQuery turns list flags into a collection query
func buildQuery(sc *schema.Schema, f listFlags) (collection.Query, error) {
	var q collection.Query

	for _, expr := range f.where {
		field, value, err := splitFilter(sc, expr)
		if err != nil {
			return q, err
		}
		q.Filters = append(q.Filters, collection.Eq(field, literal(value)))
	}

	for _, expr := range f.in {
		field, value, err := splitFilter(sc, expr)
		if err != nil {
			return q, err
		}
		var values []any
		for _, v := range strings.Split(value, "|") {
			values = append(values, literal(v))
		}
		q.Filters = append(q.Filters, collection.In(field, values...))
	}

	for _, expr := range f.ranges {
		field, value, err := splitFilter(sc, expr)
		if err != nil {
			return q, err
		}
		lo, hi, ok := strings.Cut(value, "..")
		if !ok {
			return q, fmt.Errorf("range %q: want field=lo..hi", expr)
		}
		q.Filters = append(q.Filters, collection.Range(field, bound(lo), bound(hi)))
	}

	if f.search != "" {
		q.Filters = append(q.Filters, collection.Search(f.search, textFields(sc)...))
	}

	if f.sort != "" {
		if !knownField(sc, f.sort) {
			return q, fmt.Errorf("unknown %s field %q", sc.Kind, f.sort)
		}
		q.Sort = collection.SortSpec{Key: f.sort, Dir: collection.Asc}
		if f.desc {
			q.Sort.Dir = collection.Desc
		}
	}
	if f.limit < 0 {
		return q, fmt.Errorf("--limit must not be negative")
	}
	q.Limit = f.limit
	return q, nil
}

func splitFilter(sc *schema.Schema, expr string) (string, string, error) {
	field, value, ok := strings.Cut(expr, "=")
	field = strings.TrimSpace(field)
	if !ok || field == "" {
		return "", "", fmt.Errorf("filter %q: want field=value", expr)
	}
	if !knownField(sc, field) {
		return "", "", fmt.Errorf("unknown %s field %q", sc.Kind, field)
	}
	return field, strings.TrimSpace(value), nil
}

// literal types a filter value so numbers and dates compare as such
func literal(s string) any {
	s = strings.TrimSpace(s)
	if d, err := contracts.ParseDate(s); err == nil {
		return d
	}
	if n, err := parser.ParseNumber(s); err == nil {
		return n.InexactFloat64()
	}
	return s
}

// bound is a literal where an empty side means open
func bound(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return literal(s)
}

func knownField(sc *schema.Schema, field string) bool {
	return field == "id" || sc.Known(field) || slices.Contains(sc.Derived, field)
}

// textFields are the free-text columns searched by --search
func textFields(sc *schema.Schema) []string {
	fields := []string{"id"}
	for _, h := range sc.Headers() {
		if sc.IsMoney(h) {
			continue
		}
		fields = append(fields, h)
	}
	return fields
}
