package checkout

import (
	"context"

	"storefront/internal/domain/model"
)

func findOption(opts []model.AddressOption, code string) (model.AddressOption, bool) {
	for _, o := range opts {
		if o.Code == code {
			return o, true
		}
	}
	return model.AddressOption{}, false
}

// LoadProvinces は州リストを読み込む（初回だけ）
func (f *Flow) LoadProvinces(ctx context.Context) ([]model.AddressOption, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.usable(); err != nil {
		return nil, err
	}
	if err := f.loadProvincesLocked(ctx); err != nil {
		return nil, err
	}
	return f.provinces, nil
}

func (f *Flow) loadProvincesLocked(ctx context.Context) error {
	if len(f.provinces) > 0 {
		return nil
	}
	opts, err := f.deps.Addresses.Provinces(ctx)
	if err != nil {
		return err
	}
	f.provinces = opts
	return nil
}

// SelectProvince は州を選ぶ。市とバランガイは空にして市リストを取り直す。
func (f *Flow) SelectProvince(ctx context.Context, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.usable(); err != nil {
		return err
	}
	if err := f.loadProvincesLocked(ctx); err != nil {
		return err
	}
	opt, ok := findOption(f.provinces, code)
	if !ok {
		return ErrUnknownOption
	}

	f.provinceCode = opt.Code
	f.data.Province = opt.Name
	f.cityCode = ""
	f.data.City = ""
	f.data.Barangay = ""
	f.cities = nil
	f.barangays = nil

	cities, err := f.deps.Addresses.Cities(ctx, opt.Code)
	if err != nil {
		return err
	}
	f.cities = cities
	return nil
}

// SelectCity は市を選ぶ。バランガイは空にしてリストを取り直す。
func (f *Flow) SelectCity(ctx context.Context, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.usable(); err != nil {
		return err
	}
	opt, ok := findOption(f.cities, code)
	if !ok {
		return ErrUnknownOption
	}

	f.cityCode = opt.Code
	f.data.City = opt.Name
	f.data.Barangay = ""
	f.barangays = nil

	barangays, err := f.deps.Addresses.Barangays(ctx, opt.Code)
	if err != nil {
		return err
	}
	f.barangays = barangays
	return nil
}

// SelectBarangay は今のリストにあるものだけ受け付ける
func (f *Flow) SelectBarangay(code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.usable(); err != nil {
		return err
	}
	opt, ok := findOption(f.barangays, code)
	if !ok {
		return ErrUnknownOption
	}
	f.data.Barangay = opt.Name
	return nil
}
