package grpc

import (
	"context"
	"fmt"

	"github.com/DRSN-tech/sales-backend/internal/usecase"
	"github.com/DRSN-tech/sales-backend/pkg/e"
	"github.com/DRSN-tech/sales-backend/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	catalogServiceName     = "sales.v1.CatalogService"
	getProductsInfoMethod  = "GetProductsInfo"
	GetProductsInfoFullRPC = "/" + catalogServiceName + "/" + getProductsInfoMethod
)

// CatalogServer отдаёт карточки товаров внутренним сервисам.
// Сообщения передаются как google.protobuf.Struct: запрос {"ids": [..]}, ответ {"products": [..], "not_found": [..]}.
type CatalogServer interface {
	GetProductsInfo(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var catalogServiceDesc = grpc.ServiceDesc{
	ServiceName: catalogServiceName,
	HandlerType: (*CatalogServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: getProductsInfoMethod, Handler: getProductsInfoHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "sales/v1/catalog.proto",
}

func getProductsInfoHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CatalogServer).GetProductsInfo(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetProductsInfoFullRPC}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CatalogServer).GetProductsInfo(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

type CatalogService struct {
	prUC   usecase.ProductUC
	logger logger.Logger
}

func NewCatalogService(prUC usecase.ProductUC, logger logger.Logger) *CatalogService {
	return &CatalogService{prUC: prUC, logger: logger}
}

func (g *CatalogService) GetProductsInfo(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	const op = "grpc.GetProductsInfo"

	ids, err := parseIDs(req)
	if err != nil {
		return nil, GRPCErrorResponse(e.Wrap(op, err))
	}

	res, err := g.prUC.GetProductsInfo(ctx, usecase.NewGetProductsReq(ids))
	if err != nil {
		g.logger.Errorf(e.Wrap(op, err), "%s", op)
		return nil, GRPCErrorResponse(e.Wrap(op, err))
	}

	products := make([]interface{}, 0, len(res.Products))
	for _, p := range res.Products {
		products = append(products, map[string]interface{}{
			"id":       p.ID,
			"name":     p.Name,
			"category": p.CategoryName,
			"price":    p.Price.StringFixed(2),
			"stock":    p.Stock,
		})
	}

	notFound := make([]interface{}, 0, len(res.NotFoundProducts))
	for _, id := range res.NotFoundProducts {
		notFound = append(notFound, id)
	}

	out, err := structpb.NewStruct(map[string]interface{}{
		"products":  products,
		"not_found": notFound,
	})
	if err != nil {
		return nil, GRPCErrorResponse(e.Wrap(op, err))
	}

	return out, nil
}

// parseIDs читает список положительных целых id из поля ids.
func parseIDs(req *structpb.Struct) ([]int64, error) {
	list := req.GetFields()["ids"].GetListValue()
	if list == nil {
		return nil, e.Wrap("ids", e.ErrInvalidProductID)
	}

	ids := make([]int64, 0, len(list.GetValues()))
	for _, v := range list.GetValues() {
		n := v.GetNumberValue()
		if n <= 0 || n != float64(int64(n)) {
			return nil, e.Wrap(fmt.Sprintf("ids: %v", n), e.ErrInvalidProductID)
		}
		ids = append(ids, int64(n))
	}

	return ids, nil
}
