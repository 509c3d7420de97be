package core

import "testing"

func validInput() TransactionInput {
	return TransactionInput{
		Type:       TypeExpense,
		Amount:     "50.00",
		Note:       "lunch",
		Date:       "2024-01-01",
		Time:       "09:00",
		AccountID:  "acc",
		CategoryID: "cat",
	}
}

func TestParseDate(t *testing.T) {
	if d, err := ParseDate("2024-02-29"); err != nil || d.String() != "2024-02-29" {
		t.Fatalf("expected ok, got %v %v", d, err)
	}
	for _, in := range []string{"", "2024-2-1", "2023-02-29", "01/02/2024"} {
		if _, err := ParseDate(in); err != ErrInvalidDate {
			t.Fatalf("%q expected ErrInvalidDate, got %v", in, err)
		}
	}
}

func TestParseTimeOfDay(t *testing.T) {
	for _, in := range []string{"00:00", "09:05", "23:59"} {
		tod, err := ParseTimeOfDay(in)
		if err != nil || tod.String() != in {
			t.Fatalf("%q expected round-trip, got %v %v", in, tod, err)
		}
	}
	for _, in := range []string{"24:00", "9:00", "12:60", "", "12:00:00"} {
		if _, err := ParseTimeOfDay(in); err == nil {
			t.Fatalf("%q expected error", in)
		}
	}
}

func TestAccountInputValidate(t *testing.T) {
	good := AccountInput{Name: "Wallet", Type: AccountCash}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []struct {
		in    AccountInput
		field string
	}{
		{AccountInput{Name: "", Type: AccountCash}, "name"},
		{AccountInput{Name: "ElevenChars", Type: AccountCash}, "name"},
		{AccountInput{Name: "Bank", Type: "credit"}, "type"},
	}
	for i, tc := range bads {
		err := tc.in.Validate()
		if !IsKind(err, KindValidation) || FieldOf(err) != tc.field {
			t.Fatalf("case %d expected validation on %s, got %v", i, tc.field, err)
		}
	}
}

func TestCategoryPatchApply(t *testing.T) {
	name := "Dining"
	c := Category{Name: "Food", Type: CategoryExpense, Icon: "food"}
	in := CategoryPatch{Name: &name}.Apply(c)
	if in.Name != "Dining" || in.Type != CategoryExpense || in.Icon != "food" {
		t.Fatalf("unexpected merge: %+v", in)
	}
}

func TestNormalizeIcon(t *testing.T) {
	if got := NormalizeIcon(" Food "); got != "food" {
		t.Fatalf("expected food, got %q", got)
	}
	if got := NormalizeIcon("unicorn"); got != IconNone {
		t.Fatalf("expected none, got %q", got)
	}
}

func TestTransactionInputParseOrder(t *testing.T) {
	cases := []struct {
		name  string
		edit  func(*TransactionInput)
		field string
	}{
		{"type first", func(in *TransactionInput) { in.Type = "refund"; in.Amount = "0" }, "type"},
		{"amount before note", func(in *TransactionInput) { in.Amount = "0"; in.Note = "this note is far too long" }, "amount"},
		{"negative amount", func(in *TransactionInput) { in.Amount = "-5" }, "amount"},
		{"three decimals", func(in *TransactionInput) { in.Amount = "0.001" }, "amount"},
		{"fee for transfer", func(in *TransactionInput) {
			in.Type = TypeTransfer
			in.TransferFee = "-1"
			in.Date = "bad"
		}, "transferFee"},
		{"note", func(in *TransactionInput) { in.Note = "this note is far too long" }, "note"},
		{"date", func(in *TransactionInput) { in.Date = "2024-13-01" }, "date"},
		{"time", func(in *TransactionInput) { in.Time = "25:00" }, "time"},
		{"account", func(in *TransactionInput) { in.AccountID = "" }, "accountID"},
		{"category", func(in *TransactionInput) { in.CategoryID = "" }, "categoryID"},
		{"same account", func(in *TransactionInput) {
			in.Type = TypeTransfer
			in.TransferFee = "0"
			in.TransferToAccountID = in.AccountID
		}, "transferToAccountID"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.edit(&in)
			_, err := in.Parse()
			if !IsKind(err, KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if got := FieldOf(err); got != tc.field {
				t.Fatalf("expected field %s, got %s (%v)", tc.field, got, err)
			}
		})
	}
}

func TestIncomeIgnoresFee(t *testing.T) {
	in := validInput()
	in.Type = TypeIncome
	in.TransferFee = "5.00"
	d, err := in.Parse()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tx, err := NewTransaction("id", "owner", d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !tx.Fee().IsZero() || tx.CategoryID() != "cat" || tx.Type() != TypeIncome {
		t.Fatalf("unexpected transaction: %+v", tx)
	}
}

func TestNewTransferEffects(t *testing.T) {
	in := validInput()
	in.Type = TypeTransfer
	in.Amount = "20.00"
	in.TransferFee = "1.00"
	in.CategoryID = ""
	in.TransferToAccountID = "savings"
	d, err := in.Parse()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, inc, err := NewTransfer("o", "i", "g", "owner", d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := out.Effect().String(); got != "-21.00" {
		t.Fatalf("outgoing effect: expected -21.00, got %s", got)
	}
	if got := inc.Effect().String(); got != "20.00" {
		t.Fatalf("incoming effect: expected 20.00, got %s", got)
	}
	if !inc.Fee().IsZero() || inc.AccountID != "savings" {
		t.Fatalf("unexpected incoming side: %+v", inc)
	}
	if out.CategoryID() != "" {
		t.Fatalf("transfer must carry no category")
	}
	od := out.Detail.(TransferDetail)
	id := inc.Detail.(TransferDetail)
	if od.GroupID != id.GroupID || od.CounterpartyAccountID != "savings" || id.CounterpartyAccountID != "acc" {
		t.Fatalf("transfer sides are not linked: %+v %+v", od, id)
	}
}
