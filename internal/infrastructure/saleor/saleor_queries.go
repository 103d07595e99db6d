package saleor

// Operation names, used for spans, metrics and MutationError.Operation
const (
	OpTokenCreate                 = "tokenCreate"
	OpCategoryCreate              = "categoryCreate"
	OpProductTypeCreate           = "productTypeCreate"
	OpProductCreate               = "productCreate"
	OpProductChannelListingUpdate = "productChannelListingUpdate"
	OpVariantCreate               = "productVariantCreate"
	OpVariantChannelListingUpdate = "productVariantChannelListingUpdate"
	OpProductMediaCreate          = "productMediaCreate"
	OpVariantMediaAssign          = "variantMediaAssign"
	OpProducts                    = "products"
	OpProductBulkDelete           = "productBulkDelete"
)

const errorFields = `errors { field code message }`

const tokenCreateMutation = `mutation TokenCreate($email: String!, $password: String!) {
  tokenCreate(email: $email, password: $password) {
    token
    ` + errorFields + `
  }
}`

const categoryCreateMutation = `mutation CategoryCreate($input: CategoryInput!, $parent: ID) {
  categoryCreate(input: $input, parent: $parent) {
    category { id }
    ` + errorFields + `
  }
}`

const productTypeCreateMutation = `mutation ProductTypeCreate($input: ProductTypeInput!) {
  productTypeCreate(input: $input) {
    productType { id }
    ` + errorFields + `
  }
}`

const productCreateMutation = `mutation ProductCreate($input: ProductCreateInput!) {
  productCreate(input: $input) {
    product { id }
    ` + errorFields + `
  }
}`

const productChannelListingUpdateMutation = `mutation ProductChannelListingUpdate($id: ID!, $input: ProductChannelListingUpdateInput!) {
  productChannelListingUpdate(id: $id, input: $input) {
    ` + errorFields + `
  }
}`

const variantCreateMutation = `mutation ProductVariantCreate($input: ProductVariantCreateInput!) {
  productVariantCreate(input: $input) {
    productVariant { id }
    ` + errorFields + `
  }
}`

const variantChannelListingUpdateMutation = `mutation ProductVariantChannelListingUpdate($id: ID!, $input: [ProductVariantChannelListingAddInput!]!) {
  productVariantChannelListingUpdate(id: $id, input: $input) {
    ` + errorFields + `
  }
}`

const productMediaCreateMutation = `mutation ProductMediaCreate($input: ProductMediaCreateInput!) {
  productMediaCreate(input: $input) {
    media { id }
    ` + errorFields + `
  }
}`

const variantMediaAssignMutation = `mutation VariantMediaAssign($mediaId: ID!, $variantId: ID!) {
  variantMediaAssign(mediaId: $mediaId, variantId: $variantId) {
    ` + errorFields + `
  }
}`

const productsQuery = `query Products($first: Int!, $after: String, $channel: String) {
  products(first: $first, after: $after, channel: $channel) {
    edges { node { id } }
    pageInfo { hasNextPage endCursor }
  }
}`

const productBulkDeleteMutation = `mutation ProductBulkDelete($ids: [ID!]!) {
  productBulkDelete(ids: $ids) {
    count
    ` + errorFields + `
  }
}`
