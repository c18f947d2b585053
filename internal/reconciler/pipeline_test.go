package reconciler

import (
	"context"
	"strings"
	"testing"
)

func doc(name, content string) Document {
	return Document{Name: name, Data: []byte(content)}
}

func TestRunEndToEnd(t *testing.T) {
	inputs := Inputs{
		Statement: doc("extracto.csv", strings.Join([]string{
			"Fecha,Credito,Debito,Descripcion",
			"10/03/2024,1000.00,,pago cliente ACME",
			"11/03/2024,,250.00,compra insumos",
			"12/03/2024,,,sin importe",
		}, "\n")),
		Sales: doc("ventas.csv", strings.Join([]string{
			"Fecha,Total,Comprobante,Descripcion",
			"11/03/2024,1000.00,F-001,ACME pago",
			"01/04/2024,1000.00,F-002,otro",
		}, "\n")),
		Purchases: doc("compras.csv", strings.Join([]string{
			"Fecha,Total,Comprobante,Descripcion",
			"12/03/2024,250.00,C-010,insumos proveedor",
		}, "\n")),
	}

	result, err := New(nil, nil, nil).Run(context.Background(), inputs)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.StatementRows != 3 {
		t.Errorf("Expected 3 statement rows, got %d", result.StatementRows)
	}
	if result.Reconciled != 2 {
		t.Errorf("Expected 2 reconciled rows, got %d", result.Reconciled)
	}
	if len(result.Rows) != 3 {
		t.Fatalf("Expected 3 report rows, got %d", len(result.Rows))
	}

	first := result.Rows[0]
	if first.Conciliado != "Si" || first.Comprobante != "F-001" || first.Origen != "Ventas" {
		t.Errorf("Unexpected first row: %+v", first)
	}
	if first.Diferencia != "0.00" {
		t.Errorf("Expected Diferencia 0.00, got %s", first.Diferencia)
	}

	second := result.Rows[1]
	if second.Conciliado != "Si" || second.Origen != "Compras" {
		t.Errorf("Expected debit row matched against purchases, got %+v", second)
	}

	third := result.Rows[2]
	if third.Conciliado != "No" {
		t.Errorf("Expected null-amount row unmatched, got %+v", third)
	}
}

func TestRunFailsOnUnreadableInput(t *testing.T) {
	inputs := Inputs{
		Statement: doc("extracto.xlsx", "not a workbook at all"),
		Sales:     doc("ventas.csv", "Fecha,Total\n"),
		Purchases: doc("compras.csv", "Fecha,Total\n"),
	}

	// Extension says xlsx but the bytes have no zip magic, so sniffing
	// routes by extension and the workbook reader must reject it.
	if _, err := New(nil, nil, nil).Run(context.Background(), inputs); err == nil {
		t.Error("Expected error for unreadable statement document")
	}
}

func TestRunEmptyLedgersLeaveEverythingUnmatched(t *testing.T) {
	inputs := Inputs{
		Statement: doc("extracto.csv", "Fecha,Credito,Debito,Descripcion\n10/03/2024,100.00,,pago\n"),
		Sales:     doc("ventas.csv", "Fecha,Total,Descripcion\n"),
		Purchases: doc("compras.csv", "Fecha,Total,Descripcion\n"),
	}

	result, err := New(nil, nil, nil).Run(context.Background(), inputs)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Reconciled != 0 {
		t.Errorf("Expected 0 reconciled rows, got %d", result.Reconciled)
	}
	if result.Rows[0].Conciliado != "No" {
		t.Errorf("Expected unmatched row, got %+v", result.Rows[0])
	}
}
