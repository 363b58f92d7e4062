package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/vpants/bookkeeper/internal/store"
)

func product(name, size string, price, cost int64, perPack int) store.Product {
	return store.Product{
		Name:          name,
		Size:          size,
		SellingPrice:  decimal.NewFromInt(price),
		CostPerPiece:  decimal.NewFromInt(cost),
		PiecesPerPack: perPack,
	}
}

func material(name, unit string, cost int64) store.RawMaterial {
	return store.RawMaterial{Name: name, Unit: unit, CostPerUnit: decimal.NewFromInt(cost)}
}

// DefaultProducts is the catalog installed by setup.
func DefaultProducts() []store.Product {
	return []store.Product{
		product("Celana Dalam VPants", store.SizeS, 75000, 35000, 1),
		product("Celana Dalam VPants", store.SizeM, 75000, 35000, 1),
		product("Celana Dalam VPants", store.SizeL, 75000, 35000, 1),
		product("Celana Dalam VPants", store.SizeXL, 80000, 38000, 1),
		product("Celana Dalam VPants", store.SizeXXL, 80000, 38000, 1),
		product("Celana Pembalut VPants", store.SizeS, 85000, 40000, 1),
		product("Celana Pembalut VPants", store.SizeM, 85000, 40000, 1),
		product("Celana Pembalut VPants", store.SizeL, 85000, 40000, 1),
		product("Celana Dalam Premium", store.SizeS, 95000, 45000, 1),
		product("Celana Dalam Premium", store.SizeM, 95000, 45000, 1),
		product("Celana Dalam Premium", store.SizeL, 95000, 45000, 1),
		product("Paket Celana Dalam", store.SizeMixed, 200000, 105000, 3),
		product("Paket Celana Dalam", store.SizeMixed, 300000, 175000, 5),
		product("Paket Celana Dalam", store.SizeMixed, 550000, 350000, 10),
	}
}

// DefaultRawMaterials is the material list installed by setup.
func DefaultRawMaterials() []store.RawMaterial {
	return []store.RawMaterial{
		material("Kain Waterproof", "meter", 25000),
		material("Kain Polar", "meter", 18000),
		material("Kain Spandex", "meter", 22000),
		material("Kain Diadora", "meter", 20000),
		material("Karet Elastis", "kg", 45000),
		material("Benang", "roll", 15000),
		material("Resleting", "pcs", 5000),
		material("Kancing", "pcs", 200),
	}
}
