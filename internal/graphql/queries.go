package graphql

const productFields = `id name description category image price currency stock`

const cartFields = `id ownerId currency subtotal
	items { id quantity price product { ` + productFields + ` } }`

const orderFields = `id number reference shippingType paymentMethod paymentStatus
	subtotal discount tax shipping total createdAt`

const (
	opCartByOwner = "CartByOwner"
	qCartByOwner  = `query CartByOwner($ownerId: ID!) {
	cartByOwner(ownerId: $ownerId) { ` + cartFields + ` }
}`

	opCreateCart = "CreateCart"
	qCreateCart  = `mutation CreateCart($input: CreateCartInput!) {
	createCart(input: $input) { id ownerId currency lineItems { id productId name image quantity unitPrice } }
}`

	opAddCartItem = "AddCartItem"
	qAddCartItem  = `mutation AddCartItem($cartId: ID!, $input: CartItemInput!) {
	addCartItem(cartId: $cartId, input: $input) { id }
}`

	opUpdateCartItem = "UpdateCartItem"
	qUpdateCartItem  = `mutation UpdateCartItem($cartId: ID!, $itemId: ID!, $quantity: Int!) {
	updateCartItem(cartId: $cartId, itemId: $itemId, quantity: $quantity) { id }
}`

	opRemoveCartItem = "RemoveCartItem"
	qRemoveCartItem  = `mutation RemoveCartItem($cartId: ID!, $itemId: ID!) {
	removeCartItem(cartId: $cartId, itemId: $itemId) { id }
}`

	opProduct = "Product"
	qProduct  = `query Product($id: ID!) {
	product(id: $id) { ` + productFields + ` }
}`

	opProducts = "Products"
	qProducts  = `query Products($filter: ProductFilter, $limit: Int, $offset: Int) {
	products(filter: $filter, limit: $limit, offset: $offset) { total items { ` + productFields + ` } }
}`

	opShippingQuote = "ShippingQuote"
	qShippingQuote  = `query ShippingQuote($country: String!) {
	shippingQuote(country: $country) { country taxRate options { type label cost estimatedDays } }
}`

	opValidateCoupon = "ValidateCoupon"
	qValidateCoupon  = `query ValidateCoupon($code: String!) {
	validateCoupon(code: $code) { code percentOff amountOff }
}`

	opCreateOrder = "CreateOrder"
	qCreateOrder  = `mutation CreateOrder($input: CreateOrderInput!) {
	createOrder(input: $input) { redirectUrl order { ` + orderFields + ` } }
}`

	opVerifyPayment = "VerifyPayment"
	qVerifyPayment  = `mutation VerifyPayment($reference: String!) {
	verifyPayment(reference: $reference) { reference orderNumber status }
}`

	opLogin = "Login"
	qLogin  = `mutation Login($email: String!, $password: String!) {
	login(email: $email, password: $password) { token user { id email name } }
}`

	opRegister = "Register"
	qRegister  = `mutation Register($input: RegisterInput!) {
	register(input: $input) { token user { id email name } }
}`

	opWishlist = "Wishlist"
	qWishlist  = `query Wishlist {
	wishlist { productId addedAt product { ` + productFields + ` } }
}`

	opAddToWishlist = "AddToWishlist"
	qAddToWishlist  = `mutation AddToWishlist($productId: ID!) {
	addToWishlist(productId: $productId) { productId }
}`

	opRemoveFromWishlist = "RemoveFromWishlist"
	qRemoveFromWishlist  = `mutation RemoveFromWishlist($productId: ID!) {
	removeFromWishlist(productId: $productId) { productId }
}`

	opNotifications = "Notifications"
	qNotifications  = `query Notifications {
	notifications { id title body read createdAt }
}`

	opMarkNotificationRead = "MarkNotificationRead"
	qMarkNotificationRead  = `mutation MarkNotificationRead($id: ID!) {
	markNotificationRead(id: $id) { id }
}`
)
