package sqleval

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func mustTable(t *testing.T, name string, columns []Column, rows ...Row) *Table {
	t.Helper()
	table, err := NewTable(name, columns, rows)
	require.NoError(t, err)
	return table
}

func mustParse(t *testing.T, sql string) Query {
	t.Helper()
	q, err := Parse(sql)
	require.NoError(t, err)
	return q
}

func testCatalog(t *testing.T) Catalog {
	return Catalog{
		"users": mustTable(t, "users",
			[]Column{{Name: "id", Type: Int}, {Name: "name", Type: Text}},
			Row{1, "alice"},
			Row{2, "bob"},
			Row{3, "carol"},
		),
		"orders": mustTable(t, "orders",
			[]Column{{Name: "id", Type: Int}, {Name: "uid", Type: Int}, {Name: "item", Type: Text}},
			Row{10, 1, "x"},
			Row{20, 2, "y"},
			Row{30, 1, "z"},
		),
		"empty": mustTable(t, "empty", []Column{{Name: "e", Type: Int}}),
	}
}

func TestWorkedExample(t *testing.T) {
	data := Catalog{
		"Users": mustTable(t, "Users",
			[]Column{{Name: "id", Type: Int}, {Name: "name", Type: Text}},
			Row{1, "a"}, Row{2, "b"}),
		"Orders": mustTable(t, "Orders",
			[]Column{{Name: "id", Type: Int}, {Name: "uid", Type: Int}},
			Row{10, 1}, Row{20, 2}),
	}
	q := Query{
		Select: []Selector{
			{Column: ColumnRef{Table: "Users", Name: "name"}, As: "n"},
			{Column: ColumnRef{Table: "Orders", Name: "id"}, As: "oid"},
		},
		From: []Source{{Source: "Users", As: "Users"}, {Source: "Orders", As: "Orders"}},
		Where: []Condition{
			{Op: OpEq, Left: Col("Users", "id"), Right: Col("Orders", "uid")},
		},
	}

	p, err := New(data).Plan(q)
	require.NoError(t, err)
	require.Empty(t, p.Pushed)
	require.Len(t, p.Residual, 1)

	r, err := Evaluate(q, data)
	require.NoError(t, err)
	if diff := cmp.Diff([]Column{{Name: "n", Type: Text}, {Name: "oid", Type: Int}}, r.Columns()); diff != "" {
		t.Fatal(diff)
	}
	if diff := cmp.Diff([]Row{{"a", int64(10)}, {"b", int64(20)}}, r.Rows()); diff != "" {
		t.Fatal(diff)
	}
}

func TestQueries(t *testing.T) {
	data := testCatalog(t)

	check := func(name, query string, want []Row) {
		t.Run(name, func(t *testing.T) {
			q := mustParse(t, query)
			r, err := Evaluate(q, data)
			require.NoError(t, err, query)
			if diff := cmp.Diff(want, r.Rows()); diff != "" {
				t.Fatalf("query:\n%s\n%s", FormatQuery(q), diff)
			}

			// Pushdown must not change the result.
			naive, err := Evaluate(q, data, WithoutPushdown())
			require.NoError(t, err, query)
			if diff := cmp.Diff(r.Columns(), naive.Columns()); diff != "" {
				t.Fatalf("columns differ without pushdown:\n%s", diff)
			}
			if diff := cmp.Diff(r.Rows(), naive.Rows()); diff != "" {
				t.Fatalf("rows differ without pushdown:\n%s", diff)
			}
		})
	}

	check("simplest projection", `select name from users`, []Row{
		{"alice"}, {"bob"}, {"carol"},
	})
	check("alias and order of select list", `select name as n, id from users`, []Row{
		{"alice", int64(1)}, {"bob", int64(2)}, {"carol", int64(3)},
	})
	check("same column twice", `select id, id as again from users where id = 2`, []Row{
		{int64(2), int64(2)},
	})
	check("local filter", `select name from users where id > 1`, []Row{
		{"bob"}, {"carol"},
	})
	check("text comparison", `select id from users where name >= 'bob'`, []Row{
		{int64(2)}, {int64(3)},
	})
	check("literal on the left", `select id from users where 2 <> id`, []Row{
		{int64(1)}, {int64(3)},
	})
	check("join", `select u.name, o.id from users as u, orders as o where u.id = o.uid`, []Row{
		{"alice", int64(10)}, {"alice", int64(30)}, {"bob", int64(20)},
	})
	check("join with local and global conditions",
		`select u.name, o.item from users u, orders o where u.id = o.uid and o.item != 'y' and u.id < 3`, []Row{
			{"alice", "x"}, {"alice", "z"},
		})
	check("unqualified columns unique across tables",
		`select name, item from users, orders where uid = 2 and name = 'bob'`, []Row{
			{"bob", "y"},
		})
	check("self join", `select a.id, b.id as bid from users a, users b where a.id < b.id`, []Row{
		{int64(1), int64(2)}, {int64(1), int64(3)}, {int64(2), int64(3)},
	})
	check("condition on one table twice", `select u.id from users u where u.id = u.id and u.name <= 'bob'`, []Row{
		{int64(1)}, {int64(2)},
	})
	check("always true literal condition", `select id from users where 1 = 1`, []Row{
		{int64(1)}, {int64(2)}, {int64(3)},
	})
	check("always false literal condition", `select id from users where 'a' = 'b'`, []Row{})
	check("cross join without conditions", `select u.id, o.id as oid from users u, orders o where o.id = 10`, []Row{
		{int64(1), int64(10)}, {int64(2), int64(10)}, {int64(3), int64(10)},
	})
	check("join with an empty table", `select users.id from users, empty`, []Row{})
}

func TestEvaluationErrors(t *testing.T) {
	data := testCatalog(t)

	check := func(name, query string, want error) {
		t.Run(name, func(t *testing.T) {
			q := mustParse(t, query)
			for _, opts := range [][]Option{nil, {WithoutPushdown()}} {
				_, err := Evaluate(q, data, opts...)
				require.Error(t, err)
				if diff := cmp.Diff(want, err); diff != "" {
					t.Fatalf("%s\n%s", query, diff)
				}
				var e EvalError
				require.ErrorAs(t, err, &e)
			}
		})
	}

	check("ambiguous column in select", `select id from users, orders`,
		&AmbiguousColumnError{Column: "id", Tables: []string{"users", "orders"}})
	check("ambiguous column in where", `select name from users, orders where id = 1`,
		&AmbiguousColumnError{Column: "id", Tables: []string{"users", "orders"}})
	check("ambiguous column lists aliases", `select name from users u, orders o where id = 1`,
		&AmbiguousColumnError{Column: "id", Tables: []string{"u", "o"}})
	check("missing column in select", `select nope from users`,
		&InvalidColumnError{Column: "nope"})
	check("missing column in where", `select id from users where nope = 1`,
		&InvalidColumnError{Column: "nope"})
	check("missing qualified column", `select users.nope from users`,
		&InvalidColumnError{Column: "users.nope"})
	check("unknown qualifier in select", `select x.id from users`,
		&InvalidTableError{Table: "x"})
	check("unknown qualifier in where", `select id from users where x.id = 1`,
		&InvalidTableError{Table: "x"})
	check("source name hidden by alias", `select users.id from users u`,
		&InvalidTableError{Table: "users"})
	check("unknown source", `select id from nope`,
		&InvalidTableError{Table: "nope"})
	check("int column against text literal", `select id from users where id = 'a'`,
		&InvalidOperandTypesError{Op: OpEq, Left: Int, Right: Text})
	check("text literal against int column", `select id from users where 'a' < id`,
		&InvalidOperandTypesError{Op: OpLt, Left: Text, Right: Int})
	check("mismatch across tables", `select u.id from users u, orders o where u.name = o.id`,
		&InvalidOperandTypesError{Op: OpEq, Left: Text, Right: Int})
	check("mismatch between literals", `select id from users where 1 = '1'`,
		&InvalidOperandTypesError{Op: OpEq, Left: Int, Right: Text})
}

func TestErrorMessages(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&InvalidTableError{Table: "t"}, `ERROR: Unknown table name "t".`},
		{&InvalidColumnError{Column: "c"}, `ERROR: Column reference "c" does not exist.`},
		{&AmbiguousColumnError{Column: "id", Tables: []string{"a", "b"}},
			`ERROR: Column reference "id" is ambiguous; present in multiple tables: "a", "b".`},
		{&InvalidOperandTypesError{Op: OpGe, Left: Int, Right: Text},
			`ERROR: Incompatible types to ">=": int and str.`},
	}
	for _, c := range cases {
		require.Equal(t, c.want, c.err.Error())
	}
}

func TestPlan(t *testing.T) {
	q := mustParse(t, `select u.name from users u, orders o where u.id = o.uid and o.item != 'y' and name = 'bob' and 1 = 1`)

	p, err := New(testCatalog(t)).Plan(q)
	require.NoError(t, err)
	want := &Plan{
		Pushed: []PushedCondition{
			{Table: "o", Condition: q.Where[1]},
			{Table: "u", Condition: q.Where[2]},
		},
		Residual: []Condition{q.Where[0], q.Where[3]},
	}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Fatal(diff)
	}
	require.Equal(t, "o: o.item != 'y'\nu: name = 'bob'\nafter join: u.id = o.uid\nafter join: 1 = 1\n", p.String())

	p, err = New(testCatalog(t), WithoutPushdown()).Plan(q)
	require.NoError(t, err)
	require.Empty(t, p.Pushed)
	require.Equal(t, q.Where, p.Residual)
}

func TestQueryShapeErrors(t *testing.T) {
	data := testCatalog(t)

	_, err := Evaluate(mustParse(t, `select u.id from users u, orders u`), data)
	require.EqualError(t, err, `table alias "u" is used more than once`)

	_, err = Evaluate(Query{Select: []Selector{{Column: ColumnRef{Name: "id"}}}}, data)
	require.Equal(t, &InvalidTableError{}, err)

	_, err = Evaluate(Query{
		Select: []Selector{{Column: ColumnRef{Name: "id"}}},
		From:   []Source{{Source: "users"}},
		Where:  []Condition{{Op: "~", Left: Lit(IntValue(1)), Right: Lit(IntValue(1))}},
	}, data)
	require.EqualError(t, err, `unknown operator "~"`)

	_, err = Evaluate(Query{
		Select: []Selector{{Column: ColumnRef{Name: "id"}}},
		From:   []Source{{Source: "users"}},
		Where:  []Condition{{Op: OpEq, Left: Operand{}, Right: Lit(IntValue(1))}},
	}, data)
	require.EqualError(t, err, "empty operand")
}

func TestEvaluateLeavesCatalogAlone(t *testing.T) {
	data := testCatalog(t)
	before := data["users"].Rows()

	_, err := Evaluate(mustParse(t, `select name from users u where u.id = 1`), data)
	require.NoError(t, err)

	require.Equal(t, "users", data["users"].Name())
	if diff := cmp.Diff(before, data["users"].Rows()); diff != "" {
		t.Fatal(diff)
	}
}

func TestCodeBuiltLiterals(t *testing.T) {
	data := testCatalog(t)
	q := Query{
		Select: []Selector{{Column: ColumnRef{Name: "name"}}},
		From:   []Source{{Source: "users"}},
		Where: []Condition{
			{Op: OpGe, Left: Col("", "id"), Right: Lit(Value{Int, 2})},
			{Op: OpNe, Left: Lit(Value{Text, "carol"}), Right: Col("", "name")},
		},
	}
	for _, opts := range [][]Option{nil, {WithoutPushdown()}} {
		r, err := Evaluate(q, data, opts...)
		require.NoError(t, err)
		if diff := cmp.Diff([]Row{{"bob"}}, r.Rows()); diff != "" {
			t.Fatal(diff)
		}
	}
	// The caller's literal is left as it was.
	require.Equal(t, 2, q.Where[0].Right.Literal.Data)

	p, err := New(data).Plan(q)
	require.NoError(t, err)
	require.Equal(t, "users: id >= 2\nusers: 'carol' != name\n", p.String())

	bad := Query{
		Select: []Selector{{Column: ColumnRef{Name: "name"}}},
		From:   []Source{{Source: "users"}},
		Where:  []Condition{{Op: OpEq, Left: Col("", "name"), Right: Lit(Value{Text, 5})}},
	}
	_, err = Evaluate(bad, data)
	require.EqualError(t, err, "literal 5 is not a valid str")
	var e EvalError
	require.NotErrorAs(t, err, &e)
	require.Equal(t, `SELECT "name" FROM "users" WHERE "name" = 5`, bad.String())

	bad.Where[0].Right = Lit(Value{Int, 2.5})
	_, err = Evaluate(bad, data)
	require.EqualError(t, err, "literal 2.5 is not a valid int")
}

// Type and column errors are found while rows are read. Without pushdown a
// join with an empty table leaves no rows to read, so the same query that
// fails with pushdown evaluates to an empty result.
func TestErrorsHiddenByEmptyJoin(t *testing.T) {
	data := testCatalog(t)
	cases := []struct {
		query string
		want  error
	}{
		{`select id from users, empty where id = 'a'`, &InvalidOperandTypesError{Op: OpEq, Left: Int, Right: Text}},
		{`select e from users, empty where nope = 1`, &InvalidColumnError{Column: "nope"}},
	}
	for _, c := range cases {
		q := mustParse(t, c.query)
		_, err := Evaluate(q, data)
		if diff := cmp.Diff(c.want, err); diff != "" {
			t.Fatalf("%s\n%s", c.query, diff)
		}
		r, err := Evaluate(q, data, WithoutPushdown())
		require.NoError(t, err, c.query)
		require.Equal(t, 0, r.NumRows(), c.query)
	}
}
