package shipping

// Parcel 包裹尺寸（cm）与重量（g）
type Parcel struct {
	Length int
	Width  int
	Height int
	Weight int
}

// ParcelItem 计算包裹时的单行输入
type ParcelItem struct {
	Length   int
	Width    int
	Height   int
	Weight   int
	Quantity int
}

// PreviewParcel 预估运费用的包裹：各维度与重量都取最大值
func PreviewParcel(items []ParcelItem) Parcel {
	var p Parcel
	for _, it := range items {
		p.Length = max(p.Length, it.Length)
		p.Width = max(p.Width, it.Width)
		p.Height = max(p.Height, it.Height)
		p.Weight = max(p.Weight, it.Weight)
	}
	return p
}

// ShipmentParcel 下单用的包裹：尺寸取最大值，重量按 weight*quantity 累加
func ShipmentParcel(items []ParcelItem) Parcel {
	var p Parcel
	for _, it := range items {
		p.Length = max(p.Length, it.Length)
		p.Width = max(p.Width, it.Width)
		p.Height = max(p.Height, it.Height)
		p.Weight += it.Weight * it.Quantity
	}
	return p
}
